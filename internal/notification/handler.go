// File: internal/notification/handler.go
package notification

import (
	"errors"

	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for notification operations.
// All routes in this group should be authenticated.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", h.getFeed)
	router.GET("/history", h.getHistory)
	router.GET("/badges", h.getBadges)
	router.POST("/refresh", h.refresh)
	router.POST("/:notification_id/mark-read", h.markRead)
	router.POST("/mark-all-read", h.markAllRead)
}

func (h *Handler) getFeed(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}

	sections, err := h.service.Feed(c.Request.Context(), ownerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification feed retrieved successfully.", sections)
}

func (h *Handler) getHistory(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	rows, pagination, err := h.service.History(c.Request.Context(), ownerID, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Notifications retrieved successfully.", rows, pagination)
}

func (h *Handler) getBadges(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}
	common.RespondOK(c, "Badge counts retrieved successfully.", h.service.BadgeCounts())
}

func (h *Handler) refresh(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}

	if err := h.service.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No active session."))
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notifications refreshed successfully.", nil)
}

func (h *Handler) markRead(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}

	notificationID, err := uuid.Parse(c.Param("notification_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid notification ID format."))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), ownerID, notificationID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read successfully.", nil)
}

func (h *Handler) markAllRead(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), ownerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notifications marked as read successfully.", gin.H{"marked_count": count})
}
