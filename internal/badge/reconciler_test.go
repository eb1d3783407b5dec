// File: internal/badge/reconciler_test.go
package badge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/bus"
	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	counts map[notification.Surface]int
	err    error
	calls  int
}

func (f *fakeGateway) Fetch(ctx context.Context, ownerID uuid.UUID, forceRefresh bool) ([]notification.Notification, error) {
	return nil, nil
}

func (f *fakeGateway) MarkRead(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeGateway) MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []notification.Category) error {
	return nil
}

func (f *fakeGateway) MarkScopedRead(ctx context.Context, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category) (int64, error) {
	return 0, nil
}

func (f *fakeGateway) FetchBadgeCounts(ctx context.Context, ownerID uuid.UUID) (map[notification.Surface]int, error) {
	f.calls++
	return f.counts, f.err
}

type fakeCache struct {
	unreadSubjects int
}

func (f *fakeCache) Upsert(ctx context.Context, rows []notification.Notification) error { return nil }

func (f *fakeCache) ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, rows []notification.Notification) error {
	return nil
}

func (f *fakeCache) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]notification.Notification, error) {
	return nil, nil
}

func (f *fakeCache) ListByOwnerPaged(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]notification.Notification, *common.Pagination, error) {
	return nil, nil, nil
}

func (f *fakeCache) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*notification.Notification, error) {
	return nil, common.ErrNotFound
}

func (f *fakeCache) MarkRead(ctx context.Context, ids []uuid.UUID) error { return nil }

func (f *fakeCache) MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []notification.Category) (int64, error) {
	return 0, nil
}

func (f *fakeCache) MarkScopedRead(ctx context.Context, ownerID uuid.UUID, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category, asOf time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeCache) HasUnreadScoped(ctx context.Context, ownerID uuid.UUID, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category) (bool, error) {
	return false, nil
}

func (f *fakeCache) UnreadSubjectCount(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return f.unreadSubjects, nil
}

func TestRefreshAll_StoresAndPublishesEverySurface(t *testing.T) {
	gateway := &fakeGateway{counts: map[notification.Surface]int{
		notification.SurfaceBell:     4,
		notification.SurfaceRequests: 1,
	}}
	eventBus := bus.New(zap.NewNop())
	defer eventBus.Close()
	r := NewReconciler(gateway, &fakeCache{}, eventBus, zap.NewNop())

	events, cancel := eventBus.Subscribe(bus.BadgeUpdated, 8)
	defer cancel()

	require.NoError(t, r.RefreshAll(context.Background(), uuid.New(), "test"))

	assert.Equal(t, 4, r.Current(notification.SurfaceBell))
	assert.Equal(t, 1, r.Current(notification.SurfaceRequests))

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-events:
			payload := evt.Payload.(bus.BadgePayload)
			got[payload.Surface] = payload.Count
		case <-time.After(time.Second):
			t.Fatal("missing badge event")
		}
	}
	assert.Equal(t, map[string]int{"bell": 4, "requests": 1}, got)
}

func TestRefreshAll_FailureKeepsLastKnownCounts(t *testing.T) {
	gateway := &fakeGateway{counts: map[notification.Surface]int{notification.SurfaceBell: 2}}
	eventBus := bus.New(zap.NewNop())
	defer eventBus.Close()
	r := NewReconciler(gateway, &fakeCache{}, eventBus, zap.NewNop())

	require.NoError(t, r.RefreshAll(context.Background(), uuid.New(), "initial"))
	require.Equal(t, 2, r.Current(notification.SurfaceBell))

	gateway.err = errors.New("aggregate endpoint down")
	err := r.RefreshAll(context.Background(), uuid.New(), "retry")
	require.Error(t, err)
	assert.Equal(t, 2, r.Current(notification.SurfaceBell), "failed refresh must not zero the badge")
}

func TestSnapshot_IsACopy(t *testing.T) {
	gateway := &fakeGateway{counts: map[notification.Surface]int{notification.SurfaceBell: 7}}
	eventBus := bus.New(zap.NewNop())
	defer eventBus.Close()
	r := NewReconciler(gateway, &fakeCache{}, eventBus, zap.NewNop())

	require.NoError(t, r.RefreshAll(context.Background(), uuid.New(), "test"))

	snap := r.Snapshot()
	snap[notification.SurfaceBell] = 99
	assert.Equal(t, 7, r.Current(notification.SurfaceBell))
}

func TestLocalEstimate_DelegatesToCache(t *testing.T) {
	eventBus := bus.New(zap.NewNop())
	defer eventBus.Close()
	r := NewReconciler(&fakeGateway{}, &fakeCache{unreadSubjects: 3}, eventBus, zap.NewNop())

	n, err := r.LocalEstimate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// The estimate never touches the published value.
	assert.Equal(t, 0, r.Current(notification.SurfaceBell))
}
