// File: internal/middleware/auth.go
package middleware

import (
	"github.com/Brcolf/naarscars-notify/internal/common"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionMiddleware creates a Gin middleware that resolves the bearer token
// to an owner id. Authentication itself lives outside this service; the
// verifier is the injected boundary to it. Requests without a resolvable
// owner fail fast with 401 before any engine or network work happens.
// The engine mirrors one signed-in owner at a time, so a verified request
// also activates the engine session for its owner.
func SessionMiddleware(verifier shared.TokenVerifier, session *shared.MemorySession, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Warn("Token verification failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired session token."))
			return
		}

		session.Activate(claims.OwnerID)
		c.Set(common.OwnerIDKey, claims.OwnerID)
		c.Next()
	}
}
