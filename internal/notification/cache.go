// File: internal/notification/cache.go
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache is the durable local mirror of the remote notification store. It is
// the read model the UI queries synchronously; the remote gateway remains the
// authority its contents eventually converge to. Mutations are limited to
// additive upserts and read=false→true patches, which keeps concurrent,
// unordered application safe.
type Cache interface {
	Upsert(ctx context.Context, rows []Notification) error
	// ReplaceForOwner merges a full remote result set: fetched rows are
	// upserted and local rows the remote no longer returns are dropped.
	ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, rows []Notification) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Notification, error)
	ListByOwnerPaged(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Notification, error)
	MarkRead(ctx context.Context, ids []uuid.UUID) error
	MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []Category) (int64, error)
	// MarkScopedRead patches rows of the given categories for one subject,
	// restricted to rows created at or before asOf. Rows arriving later stay
	// unread even for the same subject (no retroactive suppression).
	MarkScopedRead(ctx context.Context, ownerID uuid.UUID, subjectType SubjectType, subjectID uuid.UUID, categories []Category, asOf time.Time) (int64, error)
	HasUnreadScoped(ctx context.Context, ownerID uuid.UUID, subjectType SubjectType, subjectID uuid.UUID, categories []Category) (bool, error)
	// UnreadSubjectCount counts distinct unread subjects (Model A) among
	// bell-eligible rows. Advisory only: badge authority is the remote
	// aggregate endpoint.
	UnreadSubjectCount(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// GORMCache implements Cache using GORM.
type GORMCache struct {
	db *gorm.DB
}

// NewGORMCache creates a new GORM-backed local cache.
func NewGORMCache(db *gorm.DB) Cache {
	return &GORMCache{db: db}
}

func (c *GORMCache) Upsert(ctx context.Context, rows []Notification) error {
	if len(rows) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).Clauses(mergeClause()).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert notifications: %w", err)
	}
	return nil
}

// mergeClause is the upsert conflict policy shared by Upsert and
// ReplaceForOwner. read merges with OR so a remote unread copy can never
// clear a local read=true, which keeps optimistic mark-read patches intact
// across fallback merges.
func mergeClause() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"category": gorm.Expr("excluded.category"),
			"title":    gorm.Expr("excluded.title"),
			"body":     gorm.Expr("excluded.body"),
			"pinned":   gorm.Expr("excluded.pinned"),
			"read":     gorm.Expr("notifications.read OR excluded.read"),
		}),
	}
}

func (c *GORMCache) ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, rows []Notification) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uuid.UUID, 0, len(rows))
		for i := range rows {
			ids = append(ids, rows[i].ID)
		}

		del := tx.Where("owner_id = ?", ownerID)
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(&Notification{}).Error; err != nil {
			return fmt.Errorf("failed to prune stale notifications for owner %s: %w", ownerID, err)
		}

		if len(rows) == 0 {
			return nil
		}
		err := tx.Clauses(mergeClause()).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to merge notifications for owner %s: %w", ownerID, err)
		}
		return nil
	})
}

func (c *GORMCache) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Notification, error) {
	var rows []Notification
	err := c.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetching notifications for owner %s failed: %w", ownerID, err)
	}
	return rows, nil
}

func (c *GORMCache) ListByOwnerPaged(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	var rows []Notification
	var total int64

	if err := c.db.WithContext(ctx).Model(&Notification{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("counting notifications for owner %s failed: %w", ownerID, err)
	}

	pagination := common.NewPagination(total, page, pageSize)

	offset := (page - 1) * pageSize
	if page <= 0 {
		offset = 0
	}

	err := c.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("fetching notifications for owner %s failed: %w", ownerID, err)
	}
	return rows, pagination, nil
}

func (c *GORMCache) FindByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*Notification, error) {
	var row Notification
	err := c.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, common.ErrNotFound.WithDetails("Notification not found or not owned by user.")
		}
		return nil, fmt.Errorf("failed to find notification %s for owner %s: %w", id, ownerID, err)
	}
	return &row, nil
}

func (c *GORMCache) MarkRead(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	// read is monotonic: only ever set true, never cleared.
	result := c.db.WithContext(ctx).Model(&Notification{}).
		Where("id IN ? AND read = ?", ids, false).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return nil
}

func (c *GORMCache) MarkAllRead(ctx context.Context, ownerID uuid.UUID, excluding []Category) (int64, error) {
	query := c.db.WithContext(ctx).Model(&Notification{}).
		Where("owner_id = ? AND read = ?", ownerID, false)
	if len(excluding) > 0 {
		query = query.Where("category NOT IN ?", excluding)
	}
	result := query.Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications read for owner %s: %w", ownerID, result.Error)
	}
	return result.RowsAffected, nil
}

func (c *GORMCache) MarkScopedRead(ctx context.Context, ownerID uuid.UUID, subjectType SubjectType, subjectID uuid.UUID, categories []Category, asOf time.Time) (int64, error) {
	if len(categories) == 0 {
		return 0, nil
	}
	result := c.db.WithContext(ctx).Model(&Notification{}).
		Where("owner_id = ? AND read = ? AND category IN ?", ownerID, false, categories).
		Where(subjectColumn(subjectType)+" = ?", subjectID).
		Where("created_at <= ?", asOf).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark scoped notifications read for %s %s: %w", subjectType, subjectID, result.Error)
	}
	return result.RowsAffected, nil
}

func (c *GORMCache) HasUnreadScoped(ctx context.Context, ownerID uuid.UUID, subjectType SubjectType, subjectID uuid.UUID, categories []Category) (bool, error) {
	if len(categories) == 0 {
		return false, nil
	}
	var count int64
	err := c.db.WithContext(ctx).Model(&Notification{}).
		Where("owner_id = ? AND read = ? AND category IN ?", ownerID, false, categories).
		Where(subjectColumn(subjectType)+" = ?", subjectID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check unread scoped notifications for %s %s: %w", subjectType, subjectID, err)
	}
	return count > 0, nil
}

func (c *GORMCache) UnreadSubjectCount(ctx context.Context, ownerID uuid.UUID) (int, error) {
	rows, err := c.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	subjects := make(map[string]struct{})
	for i := range rows {
		n := &rows[i]
		if n.Read || n.Category.IsSurfaceExcluded() {
			continue
		}
		subjects[n.GroupingKey()] = struct{}{}
	}
	return len(subjects), nil
}

func subjectColumn(t SubjectType) string {
	switch t {
	case SubjectRide:
		return "ride_id"
	case SubjectFavor:
		return "favor_id"
	case SubjectConversation:
		return "conversation_id"
	case SubjectReview:
		return "review_id"
	case SubjectCommunityPost:
		return "community_post_id"
	}
	return "id"
}
