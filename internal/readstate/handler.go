// File: internal/readstate/handler.go
package readstate

import (
	"context"
	"errors"

	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the section-view and review terminal-action signals UI
// collaborators send in.
type Handler struct {
	tracker *Tracker
	logger  *zap.Logger
}

func NewHandler(tracker *Tracker, logger *zap.Logger) *Handler {
	return &Handler{
		tracker: tracker,
		logger:  logger,
	}
}

// RegisterRoutes sets up the scoped read-state routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/section-viewed", h.sectionViewed)
	router.POST("/reviews/:review_id/completed", h.reviewCompleted)
	router.POST("/reviews/:review_id/skipped", h.reviewSkipped)
}

type sectionViewedRequest struct {
	SubjectType string `json:"subject_type" binding:"required,oneof=ride favor conversation review community_post"`
	SubjectID   string `json:"subject_id" binding:"required,uuid"`
	Section     string `json:"section" binding:"required"`
}

func (h *Handler) sectionViewed(c *gin.Context) {
	var req sectionViewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request body."))
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid subject ID format."))
		return
	}

	err = h.tracker.OnSectionViewed(
		c.Request.Context(),
		notification.SubjectType(req.SubjectType),
		subjectID,
		Section(req.Section),
	)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No active session."))
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Section view recorded.", nil)
}

func (h *Handler) reviewCompleted(c *gin.Context) {
	h.reviewTerminal(c, h.tracker.OnReviewCompleted, "Review completion recorded.")
}

func (h *Handler) reviewSkipped(c *gin.Context) {
	h.reviewTerminal(c, h.tracker.OnReviewSkipped, "Review skip recorded.")
}

func (h *Handler) reviewTerminal(c *gin.Context, action func(ctx context.Context, reviewID uuid.UUID) error, message string) {
	reviewID, err := uuid.Parse(c.Param("review_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid review ID format."))
		return
	}

	if err := action(c.Request.Context(), reviewID); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No active session."))
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, message, nil)
}
