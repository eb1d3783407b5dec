// File: internal/common/context_helpers.go
package common

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetTokenFromContext retrieves the bearer token string from the
// Authorization header. Returns an empty string if not found.
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return parts[1]
}

// GetOwnerIDFromContext retrieves the owner ID from the Gin context.
// Returns uuid.Nil if not found or not a UUID.
func GetOwnerIDFromContext(c *gin.Context) uuid.UUID {
	val, exists := c.Get(OwnerIDKey)
	if !exists {
		return uuid.Nil
	}
	ownerID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return ownerID
}
