// File: internal/readstate/tracker.go
package readstate

import (
	"context"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Section names a content area of a subject detail view. Viewing a section
// is what clears the notifications that section describes; merely opening a
// tab clears nothing.
type Section string

const (
	SectionTop            Section = "top"
	SectionClaimStatus    Section = "claim_status"
	SectionQA             Section = "qa"
	SectionCompleteAction Section = "complete_action"
)

// sectionCategories maps a viewed section to the categories it satisfies for
// that subject. Ride and favor details share the same layout.
var sectionCategories = map[Section][]notification.Category{
	SectionTop: {
		notification.CategoryNewRequest,
		notification.CategoryRequestClaimed,
	},
	SectionClaimStatus: {
		notification.CategoryRequestUnclaimed,
	},
	SectionQA: {
		notification.CategoryRequestQuestion,
		notification.CategoryRequestAnswer,
	},
	// Opening the completion action is the completion reminder's terminal
	// surface, so it clears here and nowhere else.
	SectionCompleteAction: {
		notification.CategoryCompletionReminder,
	},
}

// reviewCategories are the two review classes; they share one terminal-action
// clearing path.
var reviewCategories = []notification.Category{
	notification.CategoryReviewRequest,
	notification.CategoryReviewReminder,
}

// BadgeRefresher triggers a badge republish after a confirmed scoped clear.
type BadgeRefresher interface {
	RefreshAll(ctx context.Context, ownerID uuid.UUID, reason string) error
}

// Tracker maps "the user viewed section S of subject Y" to scoped read
// marking. Clearing is optimistic: local rows are patched first, the remote
// call confirms, and a failed confirmation is left in place for the next
// fallback reconciliation rather than rolled back (the user never sees a
// notification come back as unread).
type Tracker struct {
	cache   notification.Cache
	gateway notification.Gateway
	badges  BadgeRefresher
	session shared.Session
	logger  *zap.Logger
	now     func() time.Time
}

// NewTracker creates a scoped read tracker.
func NewTracker(
	cache notification.Cache,
	gateway notification.Gateway,
	badges BadgeRefresher,
	session shared.Session,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		cache:   cache,
		gateway: gateway,
		badges:  badges,
		session: session,
		logger:  logger.Named("ScopedReadTracker"),
		now:     time.Now,
	}
}

// OnSectionViewed applies scoped clearing for one viewed section. Repeating
// the call for the same subject and section is a no-op after the first
// successful application, with at most one network call in total.
func (t *Tracker) OnSectionViewed(ctx context.Context, subjectType notification.SubjectType, subjectID uuid.UUID, section Section) error {
	ownerID, err := t.session.OwnerID()
	if err != nil {
		return err
	}

	categories := clearableCategories(section)
	if len(categories) == 0 {
		return nil
	}

	return t.clearScoped(ctx, ownerID, subjectType, subjectID, categories, string(section))
}

// OnReviewCompleted is the terminal action for review-class notifications:
// submitting the review clears them for that subject.
func (t *Tracker) OnReviewCompleted(ctx context.Context, reviewID uuid.UUID) error {
	return t.clearReview(ctx, reviewID, "review-completed")
}

// OnReviewSkipped clears review-class notifications when the user explicitly
// declines to review. Same effect as completion; this is the only other way
// they clear.
func (t *Tracker) OnReviewSkipped(ctx context.Context, reviewID uuid.UUID) error {
	return t.clearReview(ctx, reviewID, "review-skipped")
}

func (t *Tracker) clearReview(ctx context.Context, reviewID uuid.UUID, reason string) error {
	ownerID, err := t.session.OwnerID()
	if err != nil {
		return err
	}
	return t.clearScoped(ctx, ownerID, notification.SubjectReview, reviewID, reviewCategories, reason)
}

func (t *Tracker) clearScoped(ctx context.Context, ownerID uuid.UUID, subjectType notification.SubjectType, subjectID uuid.UUID, categories []notification.Category, reason string) error {
	// Skip the network round trip entirely when nothing local matches; this
	// also makes repeat calls idempotent.
	hasUnread, err := t.cache.HasUnreadScoped(ctx, ownerID, subjectType, subjectID, categories)
	if err != nil {
		return err
	}
	if !hasUnread {
		t.logger.Debug("No unread scoped notifications, skipping",
			zap.String("subject_type", string(subjectType)),
			zap.String("subject_id", subjectID.String()),
			zap.String("reason", reason),
		)
		return nil
	}

	// Time-scope the clear to rows that exist now: rows created after this
	// view event stay unread even for the same subject and section.
	asOf := t.now()

	patched, err := t.cache.MarkScopedRead(ctx, ownerID, subjectType, subjectID, categories, asOf)
	if err != nil {
		return err
	}

	affected, err := t.gateway.MarkScopedRead(ctx, subjectType, subjectID, categories)
	if err != nil {
		// Keep the optimistic local state; the next fallback reconciliation
		// converges any divergence.
		t.logger.Warn("Scoped remote mark-read failed, keeping optimistic state",
			zap.String("subject_type", string(subjectType)),
			zap.String("subject_id", subjectID.String()),
			zap.String("reason", reason),
			zap.Int64("locally_patched", patched),
			zap.Error(err),
		)
		return err
	}

	t.logger.Info("Scoped notifications cleared",
		zap.String("subject_type", string(subjectType)),
		zap.String("subject_id", subjectID.String()),
		zap.String("reason", reason),
		zap.Int64("affected", affected),
	)

	if err := t.badges.RefreshAll(ctx, ownerID, "scoped-clear:"+reason); err != nil {
		t.logger.Warn("Badge refresh after scoped clear failed", zap.Error(err))
	}
	return nil
}

// clearableCategories resolves the section mapping and strips the categories
// that never clear on view.
func clearableCategories(section Section) []notification.Category {
	mapped := sectionCategories[section]
	out := make([]notification.Category, 0, len(mapped))
	for _, c := range mapped {
		if _, excepted := notification.ViewClearExceptions[c]; excepted {
			continue
		}
		out = append(out, c)
	}
	return out
}
