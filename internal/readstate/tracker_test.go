// File: internal/readstate/tracker_test.go
package readstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	hasUnread       bool
	hasUnreadErr    error
	markScopedCalls []scopedCall
	markScopedErr   error
}

type scopedCall struct {
	subjectType notification.SubjectType
	subjectID   uuid.UUID
	categories  []notification.Category
	asOf        time.Time
}

func (f *fakeCache) Upsert(ctx context.Context, rows []notification.Notification) error {
	return nil
}

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

func (f *fakeCache) MarkRead(ctx context.Context, ids []uuid.UUID) error {
	return nil
}

func (f *fakeCache) MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []notification.Category) (int64, error) {
	return 0, nil
}

func (f *fakeCache) MarkScopedRead(ctx context.Context, ownerID uuid.UUID, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category, asOf time.Time) (int64, error) {
	f.markScopedCalls = append(f.markScopedCalls, scopedCall{subjectType, subjectID, categories, asOf})
	if f.markScopedErr != nil {
		return 0, f.markScopedErr
	}
	return int64(len(categories)), nil
}

func (f *fakeCache) HasUnreadScoped(ctx context.Context, ownerID uuid.UUID, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category) (bool, error) {
	return f.hasUnread, f.hasUnreadErr
}

func (f *fakeCache) UnreadSubjectCount(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return 0, nil
}

type fakeGateway struct {
	scopedCalls []scopedCall
	scopedErr   error
}

func (f *fakeGateway) Fetch(ctx context.Context, ownerID uuid.UUID, forceRefresh bool) ([]notification.Notification, error) {
	return nil, nil
}

func (f *fakeGateway) MarkRead(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeGateway) MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []notification.Category) error {
	return nil
}

func (f *fakeGateway) MarkScopedRead(ctx context.Context, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category) (int64, error) {
	f.scopedCalls = append(f.scopedCalls, scopedCall{subjectType: subjectType, subjectID: subjectID, categories: categories})
	if f.scopedErr != nil {
		return 0, f.scopedErr
	}
	return int64(len(categories)), nil
}

func (f *fakeGateway) FetchBadgeCounts(ctx context.Context, ownerID uuid.UUID) (map[notification.Surface]int, error) {
	return map[notification.Surface]int{}, nil
}

type fakeBadges struct {
	reasons []string
}

func (f *fakeBadges) RefreshAll(ctx context.Context, ownerID uuid.UUID, reason string) error {
	f.reasons = append(f.reasons, reason)
	return nil
}

func newTestTracker(cache *fakeCache, gateway *fakeGateway, badges *fakeBadges) *Tracker {
	session := shared.NewMemorySession()
	session.Activate(uuid.New())
	return NewTracker(cache, gateway, badges, session, zap.NewNop())
}

func TestOnSectionViewed_ClearsMappedCategories(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	rideID := uuid.New()
	err := tracker.OnSectionViewed(context.Background(), notification.SubjectRide, rideID, SectionQA)
	require.NoError(t, err)

	require.Len(t, cache.markScopedCalls, 1)
	assert.Equal(t, notification.SubjectRide, cache.markScopedCalls[0].subjectType)
	assert.Equal(t, rideID, cache.markScopedCalls[0].subjectID)
	assert.ElementsMatch(t,
		[]notification.Category{notification.CategoryRequestQuestion, notification.CategoryRequestAnswer},
		cache.markScopedCalls[0].categories,
	)

	require.Len(t, gateway.scopedCalls, 1)
	require.Len(t, badges.reasons, 1)
	assert.Equal(t, "scoped-clear:qa", badges.reasons[0])
}

func TestOnSectionViewed_RepeatIsNoOp(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	favorID := uuid.New()
	require.NoError(t, tracker.OnSectionViewed(context.Background(), notification.SubjectFavor, favorID, SectionTop))

	// Everything for this scope is now read.
	cache.hasUnread = false
	require.NoError(t, tracker.OnSectionViewed(context.Background(), notification.SubjectFavor, favorID, SectionTop))
	require.NoError(t, tracker.OnSectionViewed(context.Background(), notification.SubjectFavor, favorID, SectionTop))

	assert.Len(t, gateway.scopedCalls, 1, "repeat views must not re-hit the network")
	assert.Len(t, cache.markScopedCalls, 1)
}

func TestOnSectionViewed_ReviewCategoriesNeverClearOnView(t *testing.T) {
	for _, section := range []Section{SectionTop, SectionClaimStatus, SectionQA, SectionCompleteAction} {
		cats := clearableCategories(section)
		for _, c := range cats {
			_, excepted := notification.ViewClearExceptions[c]
			assert.False(t, excepted, "section %s must not clear %s", section, c)
		}
	}
}

func TestOnSectionViewed_UnknownSectionClearsNothing(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	err := tracker.OnSectionViewed(context.Background(), notification.SubjectRide, uuid.New(), Section("sidebar"))
	require.NoError(t, err)
	assert.Empty(t, cache.markScopedCalls)
	assert.Empty(t, gateway.scopedCalls)
}

func TestOnSectionViewed_RemoteFailureKeepsOptimisticState(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{scopedErr: errors.New("remote store unavailable")}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	err := tracker.OnSectionViewed(context.Background(), notification.SubjectRide, uuid.New(), SectionTop)
	require.Error(t, err)

	// Local patch happened and is not rolled back.
	assert.Len(t, cache.markScopedCalls, 1)
	// No badge refresh on an unconfirmed clear.
	assert.Empty(t, badges.reasons)
}

func TestOnReviewCompleted_ClearsBothReviewCategories(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	reviewID := uuid.New()
	require.NoError(t, tracker.OnReviewCompleted(context.Background(), reviewID))

	require.Len(t, gateway.scopedCalls, 1)
	assert.Equal(t, notification.SubjectReview, gateway.scopedCalls[0].subjectType)
	assert.Equal(t, reviewID, gateway.scopedCalls[0].subjectID)
	assert.ElementsMatch(t,
		[]notification.Category{notification.CategoryReviewRequest, notification.CategoryReviewReminder},
		gateway.scopedCalls[0].categories,
	)
}

func TestOnReviewSkipped_SameClearingAsCompletion(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	require.NoError(t, tracker.OnReviewSkipped(context.Background(), uuid.New()))
	require.Len(t, gateway.scopedCalls, 1)
	assert.ElementsMatch(t,
		[]notification.Category{notification.CategoryReviewRequest, notification.CategoryReviewReminder},
		gateway.scopedCalls[0].categories,
	)
	assert.Equal(t, []string{"scoped-clear:review-skipped"}, badges.reasons)
}

func TestTracker_TimeScopedClear(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := newTestTracker(cache, gateway, badges)

	fixed := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }

	require.NoError(t, tracker.OnSectionViewed(context.Background(), notification.SubjectRide, uuid.New(), SectionTop))
	require.Len(t, cache.markScopedCalls, 1)
	assert.Equal(t, fixed, cache.markScopedCalls[0].asOf)
}

func TestTracker_NoSession(t *testing.T) {
	cache := &fakeCache{hasUnread: true}
	gateway := &fakeGateway{}
	badges := &fakeBadges{}
	tracker := NewTracker(cache, gateway, badges, shared.NewMemorySession(), zap.NewNop())

	err := tracker.OnSectionViewed(context.Background(), notification.SubjectRide, uuid.New(), SectionTop)
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	assert.Empty(t, cache.markScopedCalls)
}
