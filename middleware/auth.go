package middleware

import (
	"strings"

	"medibot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set for downstream handlers.
const (
	ContextUserID = "userID"
	ContextToken  = "authToken"
)

// TokenForwardingMiddleware extracts the bearer token when present and
// resolves the user identity from it. The token is never required here:
// anonymous chat works, and the booking flow itself asks the user to log
// in when a backend call needs the token.
func TokenForwardingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.Next()
			return
		}

		c.Set(ContextToken, token)
		userID, err := utils.ExtractUserIDFromToken(token)
		if err != nil {
			utils.GetLogger().Debug("bearer token present but unreadable", zap.Error(err))
			c.Next()
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}
