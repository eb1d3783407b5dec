// File: internal/notification/service.go
package notification

import (
	"context"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BadgePublisher is the badge reconciler as this package sees it: a
// republish trigger plus the last published per-surface values.
type BadgePublisher interface {
	RefreshAll(ctx context.Context, ownerID uuid.UUID, reason string) error
	Snapshot() map[Surface]int
}

// Refresher triggers a user-initiated full reconciliation pass.
type Refresher interface {
	ForceRefresh(ctx context.Context, reason string) error
}

// Service defines the notification read-model surface and the direct
// read-state operations.
type Service interface {
	// Feed returns the arranged display sections for the owner, derived
	// synchronously from the local cache (no remote call, no spinner).
	Feed(ctx context.Context, ownerID uuid.UUID) ([]DaySection, error)
	History(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	BadgeCounts() map[Surface]int
	MarkRead(ctx context.Context, ownerID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Refresh(ctx context.Context) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	cache     Cache
	gateway   Gateway
	badges    BadgePublisher
	refresher Refresher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a notification service.
func NewService(cache Cache, gateway Gateway, badges BadgePublisher, refresher Refresher, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		cache:     cache,
		gateway:   gateway,
		badges:    badges,
		refresher: refresher,
		logger:    logger.Named("NotificationService"),
		now:       time.Now,
	}
}

func (s *ServiceImplementation) Feed(ctx context.Context, ownerID uuid.UUID) ([]DaySection, error) {
	rows, err := s.cache.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ArrangeSections(BuildGroups(rows), s.now()), nil
}

func (s *ServiceImplementation) History(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	return s.cache.ListByOwnerPaged(ctx, ownerID, page, pageSize)
}

// BadgeCounts returns the last published per-surface values (the most recent
// successful aggregate call).
func (s *ServiceImplementation) BadgeCounts() map[Surface]int {
	return s.badges.Snapshot()
}

// MarkRead marks one notification read: local cache first (optimistic), then
// remote confirmation, then badge republish. A failed confirmation keeps the
// optimistic state and is corrected by the next fallback reconciliation.
func (s *ServiceImplementation) MarkRead(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.cache.FindByID(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.cache.MarkRead(ctx, []uuid.UUID{id}); err != nil {
		return err
	}
	if err := s.gateway.MarkRead(ctx, id); err != nil {
		s.logger.Warn("Remote mark-read failed, keeping optimistic state",
			zap.String("notification_id", id.String()),
			zap.Error(err),
		)
		return common.ErrServiceUnavailable.WithDetails("Could not confirm read state with the remote store; it will be retried on the next refresh.")
	}
	if err := s.badges.RefreshAll(ctx, ownerID, "mark-read"); err != nil {
		s.logger.Warn("Badge refresh after mark-read failed", zap.Error(err))
	}
	return nil
}

// MarkAllRead marks everything except the terminal-action categories.
func (s *ServiceImplementation) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	count, err := s.cache.MarkAllRead(ctx, ownerID, BulkReadExclusions)
	if err != nil {
		return 0, err
	}
	if err := s.gateway.MarkAllRead(ctx, ownerID, BulkReadExclusions); err != nil {
		s.logger.Warn("Remote mark-all-read failed, keeping optimistic state", zap.Error(err))
		return count, common.ErrServiceUnavailable.WithDetails("Could not confirm read state with the remote store; it will be retried on the next refresh.")
	}
	if err := s.badges.RefreshAll(ctx, ownerID, "mark-all-read"); err != nil {
		s.logger.Warn("Badge refresh after mark-all-read failed", zap.Error(err))
	}
	return count, nil
}

// Refresh is the user-initiated reconciliation entry point.
func (s *ServiceImplementation) Refresh(ctx context.Context) error {
	return s.refresher.ForceRefresh(ctx, "user-refresh")
}
