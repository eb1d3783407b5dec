// File: internal/navigation/handler.go
package navigation

import (
	"errors"

	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the tap signal: UI collaborators post a tapped
// notification or group and get the resolved deferred destination back.
type Handler struct {
	router  *Router
	cache   notification.Cache
	session shared.Session
	logger  *zap.Logger
}

func NewHandler(router *Router, cache notification.Cache, session shared.Session, logger *zap.Logger) *Handler {
	return &Handler{
		router:  router,
		cache:   cache,
		session: session,
		logger:  logger,
	}
}

// RegisterRoutes sets up the tap route.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/tap", h.tap)
}

type tapRequest struct {
	// Exactly one of the two identifies the tapped item.
	NotificationID string `json:"notification_id,omitempty"`
	GroupingKey    string `json:"grouping_key,omitempty"`
}

func (h *Handler) tap(c *gin.Context) {
	ownerID := common.GetOwnerIDFromContext(c)
	if ownerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Owner ID not found in session."))
		return
	}

	var req tapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request body."))
		return
	}

	var dest Destination
	var err error
	switch {
	case req.NotificationID != "":
		var id uuid.UUID
		id, err = uuid.Parse(req.NotificationID)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid notification ID format."))
			return
		}
		var n *notification.Notification
		n, err = h.cache.FindByID(c.Request.Context(), id, ownerID)
		if err == nil {
			dest, err = h.router.RouteNotification(c.Request.Context(), n)
		}
	case req.GroupingKey != "":
		dest, err = h.router.RouteGroupKey(c.Request.Context(), req.GroupingKey)
	default:
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Either notification_id or grouping_key is required."))
		return
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No active session."))
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Tap routed successfully.", dest)
}
