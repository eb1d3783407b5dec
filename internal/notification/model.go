// File: internal/notification/model.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a notification row. Values are persisted as strings;
// ParseCategory maps anything it does not recognize to CategoryUnknown, which
// downstream feeds the fallback-refresh path instead of being treated as an
// error.
type Category string

const (
	CategoryNewRequest         Category = "new_request"
	CategoryRequestClaimed     Category = "request_claimed"
	CategoryRequestUnclaimed   Category = "request_unclaimed"
	CategoryRequestQuestion    Category = "request_question"
	CategoryRequestAnswer      Category = "request_answer"
	CategoryCompletionReminder Category = "completion_reminder"
	CategoryReviewRequest      Category = "review_request"
	CategoryReviewReminder     Category = "review_reminder"
	CategoryConversationAdded  Category = "conversation_added"
	CategoryConversationMsg    Category = "conversation_message"
	CategoryCommunityPost      Category = "community_post"
	CategoryCommunityComment   Category = "community_comment"
	CategoryCommunityReaction  Category = "community_reaction"
	CategoryPendingApproval    Category = "pending_approval"
	CategoryAnnouncement       Category = "announcement"
	CategoryAccountStatus      Category = "account_status"
	CategoryGeneric            Category = "generic"

	// CategoryUnknown is the boundary value for raw strings that do not match
	// any known category. An event carrying it always forces a full refetch.
	CategoryUnknown Category = "unknown"
)

var knownCategories = map[Category]struct{}{
	CategoryNewRequest:         {},
	CategoryRequestClaimed:     {},
	CategoryRequestUnclaimed:   {},
	CategoryRequestQuestion:    {},
	CategoryRequestAnswer:      {},
	CategoryCompletionReminder: {},
	CategoryReviewRequest:      {},
	CategoryReviewReminder:     {},
	CategoryConversationAdded:  {},
	CategoryConversationMsg:    {},
	CategoryCommunityPost:      {},
	CategoryCommunityComment:   {},
	CategoryCommunityReaction:  {},
	CategoryPendingApproval:    {},
	CategoryAnnouncement:       {},
	CategoryAccountStatus:      {},
	CategoryGeneric:            {},
}

// ParseCategory converts a raw string from the wire into a Category.
func ParseCategory(raw string) Category {
	c := Category(raw)
	if _, ok := knownCategories[c]; ok {
		return c
	}
	return CategoryUnknown
}

// IsKnown reports whether the category is a recognized member of the closed set.
func (c Category) IsKnown() bool {
	_, ok := knownCategories[c]
	return ok
}

// SurfaceExcludedCategories are owned by the separate conversation unread
// pipeline and never appear on the bell surface: the feed listener ignores
// their change events and the grouping engine filters their rows out.
var SurfaceExcludedCategories = map[Category]struct{}{
	CategoryConversationMsg:   {},
	CategoryConversationAdded: {},
}

// ViewClearExceptions never clear on a section view. They clear only through
// their dedicated terminal action (review submitted or explicitly skipped).
var ViewClearExceptions = map[Category]struct{}{
	CategoryReviewRequest:  {},
	CategoryReviewReminder: {},
}

// TapReadExceptions are never marked read purely by a tap (single or via a
// group). Review categories route to the review prompt instead; the
// completion reminder clears only through the completion action itself.
var TapReadExceptions = map[Category]struct{}{
	CategoryReviewRequest:      {},
	CategoryReviewReminder:     {},
	CategoryCompletionReminder: {},
}

// BulkReadExclusions are skipped by mark-all-read. Same set as the tap
// exceptions: these rows only clear through their terminal action.
var BulkReadExclusions = []Category{
	CategoryReviewRequest,
	CategoryReviewReminder,
	CategoryCompletionReminder,
}

// IsSurfaceExcluded reports whether the category belongs to the conversation
// unread pipeline rather than the bell feed.
func (c Category) IsSurfaceExcluded() bool {
	_, ok := SurfaceExcludedCategories[c]
	return ok
}

// SubjectType identifies the kind of entity a notification is about.
type SubjectType string

const (
	SubjectRide          SubjectType = "ride"
	SubjectFavor         SubjectType = "favor"
	SubjectConversation  SubjectType = "conversation"
	SubjectReview        SubjectType = "review"
	SubjectCommunityPost SubjectType = "community_post"
)

// Surface names a navigational surface that carries an unread badge.
type Surface string

const (
	SurfaceBell     Surface = "bell"
	SurfaceRequests Surface = "requests"
)

// Notification represents one row of user-directed activity mirrored from the
// remote store. Rows are created exclusively remote-side; this engine only
// ever flips Read from false to true (optimistically ahead of remote
// confirmation) and never deletes rows itself.
type Notification struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_owner_read" json:"owner_id"`
	Category Category  `gorm:"type:varchar(64);not null" json:"category"`
	Title    string    `gorm:"type:text;not null" json:"title"`
	Body     string    `gorm:"type:text;not null" json:"body"`
	Read     bool      `gorm:"not null;default:false;index:idx_notification_owner_read" json:"read"`
	Pinned   bool      `gorm:"not null;default:false" json:"pinned"`

	// At most one subject reference is populated, determined by Category.
	RideID          *uuid.UUID `gorm:"type:uuid" json:"ride_id,omitempty"`
	FavorID         *uuid.UUID `gorm:"type:uuid" json:"favor_id,omitempty"`
	ConversationID  *uuid.UUID `gorm:"type:uuid" json:"conversation_id,omitempty"`
	ReviewID        *uuid.UUID `gorm:"type:uuid" json:"review_id,omitempty"`
	CommunityPostID *uuid.UUID `gorm:"type:uuid" json:"community_post_id,omitempty"`
	SourceUserID    *uuid.UUID `gorm:"type:uuid" json:"source_user_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// SubjectRef returns the populated subject reference, if any. An absent
// reference means the row is not subject-scoped and never groups with others.
func (n *Notification) SubjectRef() (SubjectType, uuid.UUID, bool) {
	switch {
	case n.RideID != nil:
		return SubjectRide, *n.RideID, true
	case n.FavorID != nil:
		return SubjectFavor, *n.FavorID, true
	case n.ConversationID != nil:
		return SubjectConversation, *n.ConversationID, true
	case n.ReviewID != nil:
		return SubjectReview, *n.ReviewID, true
	case n.CommunityPostID != nil:
		return SubjectCommunityPost, *n.CommunityPostID, true
	}
	return "", uuid.Nil, false
}

// GroupingKey returns the key this notification buckets under. Announcements
// key by their own id so two announcements never collapse into one card;
// rows without a subject reference do the same (ungroupable).
func (n *Notification) GroupingKey() string {
	if n.Category == CategoryAnnouncement {
		return n.ID.String()
	}
	if _, id, ok := n.SubjectRef(); ok {
		return id.String()
	}
	return n.ID.String()
}

// Group is a derived, display-time aggregation of notifications sharing a
// grouping key. It is never persisted.
type Group struct {
	GroupingKey string        `json:"grouping_key"`
	Primary     *Notification `json:"primary"`
	TotalCount  int           `json:"total_count"`
	HasUnread   bool          `json:"has_unread"`
	IsPinned    bool          `json:"is_pinned"`
}
