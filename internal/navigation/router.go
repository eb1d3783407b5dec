// File: internal/navigation/router.go
package navigation

import (
	"context"

	"github.com/Brcolf/naarscars-notify/internal/bus"
	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DestinationKind tags the navigation destination union.
type DestinationKind string

const (
	DestNone             DestinationKind = "none"
	DestSubjectDetail    DestinationKind = "subject_detail"
	DestConversation     DestinationKind = "conversation"
	DestCommunityPost    DestinationKind = "community_post"
	DestPendingApprovals DestinationKind = "pending_approvals"
	DestProfile          DestinationKind = "profile"
	DestAnnouncement     DestinationKind = "announcement"
	DestReviewPrompt     DestinationKind = "review_prompt"
)

// PostMode selects how a community post opens.
type PostMode string

const (
	PostModeComments  PostMode = "comments"
	PostModeHighlight PostMode = "highlight"
)

// Destination is the deferred navigation instruction handed to the
// presentation layer. Exactly the fields relevant to Kind are set.
type Destination struct {
	Kind        DestinationKind          `json:"kind"`
	SubjectType notification.SubjectType `json:"subject_type,omitempty"`
	SubjectID   uuid.UUID                `json:"subject_id,omitempty"`
	Anchor      string                   `json:"anchor,omitempty"`
	PostMode    PostMode                 `json:"post_mode,omitempty"`
	UserID      uuid.UUID                `json:"user_id,omitempty"`
	// NotificationID identifies the tapped announcement or the notification
	// driving a review prompt.
	NotificationID uuid.UUID `json:"notification_id,omitempty"`
}

// BadgeRefresher triggers a badge republish after confirmed read mutations.
type BadgeRefresher interface {
	RefreshAll(ctx context.Context, ownerID uuid.UUID, reason string) error
}

// Router turns a tap on a notification or a group into read-marking plus a
// deferred destination. The dismiss signal is emitted first so navigation
// runs only after any modal surface finished dismissing.
type Router struct {
	cache   notification.Cache
	gateway notification.Gateway
	badges  BadgeRefresher
	session shared.Session
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewRouter creates a navigation router.
func NewRouter(
	cache notification.Cache,
	gateway notification.Gateway,
	badges BadgeRefresher,
	session shared.Session,
	eventBus *bus.Bus,
	logger *zap.Logger,
) *Router {
	return &Router{
		cache:   cache,
		gateway: gateway,
		badges:  badges,
		session: session,
		bus:     eventBus,
		logger:  logger.Named("NavigationRouter"),
	}
}

// RouteNotification handles a tap on a single notification.
func (r *Router) RouteNotification(ctx context.Context, n *notification.Notification) (Destination, error) {
	ownerID, err := r.session.OwnerID()
	if err != nil {
		return Destination{Kind: DestNone}, err
	}

	dest := resolveDestination(n)

	switch {
	case n.Category == notification.CategoryAnnouncement:
		// Announcements are read-on-tap only: listing them never marks them.
		r.markRead(ctx, ownerID, []*notification.Notification{n})
	case isTapException(n.Category):
		// Review classes and the completion reminder stay unread here.
	default:
		r.markRead(ctx, ownerID, []*notification.Notification{n})
	}

	r.emit(dest, n)
	return dest, nil
}

// RouteGroup handles a tap on a grouped card: every eligible member is
// marked read and navigation resolves from the primary notification.
func (r *Router) RouteGroup(ctx context.Context, g *notification.Group, members []notification.Notification) (Destination, error) {
	ownerID, err := r.session.OwnerID()
	if err != nil {
		return Destination{Kind: DestNone}, err
	}
	if g.Primary == nil {
		return Destination{Kind: DestNone}, nil
	}

	eligible := make([]*notification.Notification, 0, len(members))
	for i := range members {
		if isTapException(members[i].Category) {
			continue
		}
		eligible = append(eligible, &members[i])
	}
	r.markRead(ctx, ownerID, eligible)

	dest := resolveDestination(g.Primary)
	r.emit(dest, g.Primary)
	return dest, nil
}

// RouteGroupKey resolves a grouping key to its cached members and routes the
// tap as a group tap.
func (r *Router) RouteGroupKey(ctx context.Context, groupingKey string) (Destination, error) {
	ownerID, err := r.session.OwnerID()
	if err != nil {
		return Destination{Kind: DestNone}, err
	}

	rows, err := r.cache.ListByOwner(ctx, ownerID)
	if err != nil {
		return Destination{Kind: DestNone}, err
	}

	members := make([]notification.Notification, 0)
	for i := range rows {
		if rows[i].GroupingKey() == groupingKey {
			members = append(members, rows[i])
		}
	}
	if len(members) == 0 {
		return Destination{Kind: DestNone}, common.ErrNotFound.WithDetails("No notifications found for grouping key.")
	}

	groups := notification.BuildGroups(members)
	if len(groups) == 0 {
		return Destination{Kind: DestNone}, nil
	}
	return r.RouteGroup(ctx, &groups[0], members)
}

// markRead optimistically patches the cache, then confirms against the
// remote gateway and refreshes badges on success. Failures keep the
// optimistic state; the next reconciliation converges.
func (r *Router) markRead(ctx context.Context, ownerID uuid.UUID, rows []*notification.Notification) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, n := range rows {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	if err := r.cache.MarkRead(ctx, ids); err != nil {
		r.logger.Warn("Optimistic local mark-read failed", zap.Error(err))
	}

	confirmed := true
	for _, id := range ids {
		if err := r.gateway.MarkRead(ctx, id); err != nil {
			confirmed = false
			r.logger.Warn("Remote mark-read failed, keeping optimistic state",
				zap.String("notification_id", id.String()),
				zap.Error(err),
			)
		}
	}
	if confirmed {
		if err := r.badges.RefreshAll(ctx, ownerID, "tap-mark-read"); err != nil {
			r.logger.Warn("Badge refresh after tap failed", zap.Error(err))
		}
	}
}

// emit publishes the dismiss signal first, then the deferred destination, so
// the presentation layer navigates only after the frontmost surface is gone.
func (r *Router) emit(dest Destination, n *notification.Notification) {
	r.bus.Publish(bus.Event{Kind: bus.DismissSurface})
	if dest.Kind == DestReviewPrompt {
		r.bus.Publish(bus.Event{Kind: bus.ShowReviewPrompt, Payload: n})
	}
	if dest.Kind != DestNone {
		r.bus.Publish(bus.Event{Kind: bus.NavigationRequested, Payload: dest})
	}
}

// resolveDestination computes the destination union member for a
// notification. Review classes route to the review prompt trigger, never a
// detail screen.
func resolveDestination(n *notification.Notification) Destination {
	switch n.Category {
	case notification.CategoryReviewRequest, notification.CategoryReviewReminder:
		return Destination{Kind: DestReviewPrompt, NotificationID: n.ID}
	case notification.CategoryAnnouncement:
		return Destination{Kind: DestAnnouncement, NotificationID: n.ID}
	case notification.CategoryPendingApproval:
		return Destination{Kind: DestPendingApprovals}
	case notification.CategoryAccountStatus:
		if n.SourceUserID != nil {
			return Destination{Kind: DestProfile, UserID: *n.SourceUserID}
		}
		return Destination{Kind: DestNone}
	}

	subjectType, subjectID, ok := n.SubjectRef()
	if !ok {
		return Destination{Kind: DestNone}
	}

	switch subjectType {
	case notification.SubjectConversation:
		return Destination{Kind: DestConversation, SubjectType: subjectType, SubjectID: subjectID}
	case notification.SubjectCommunityPost:
		mode := PostModeHighlight
		if n.Category == notification.CategoryCommunityComment {
			mode = PostModeComments
		}
		return Destination{Kind: DestCommunityPost, SubjectType: subjectType, SubjectID: subjectID, PostMode: mode}
	case notification.SubjectRide, notification.SubjectFavor:
		return Destination{
			Kind:        DestSubjectDetail,
			SubjectType: subjectType,
			SubjectID:   subjectID,
			Anchor:      anchorFor(n.Category),
		}
	}
	return Destination{Kind: DestNone}
}

// anchorFor picks the named section anchor a subject detail opens at.
func anchorFor(c notification.Category) string {
	switch c {
	case notification.CategoryRequestQuestion, notification.CategoryRequestAnswer:
		return "qa"
	case notification.CategoryRequestUnclaimed:
		return "claim_status"
	case notification.CategoryCompletionReminder:
		return "complete_action"
	default:
		return "top"
	}
}

func isTapException(c notification.Category) bool {
	_, ok := notification.TapReadExceptions[c]
	return ok
}
