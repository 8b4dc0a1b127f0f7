package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/response"
)

// ContextAdminKey is the gin context key storing admin session claims.
const ContextAdminKey = "adminSession"

// SessionParser validates admin session tokens.
type SessionParser interface {
	ParseSession(token string) (*models.AdminClaims, error)
}

// AdminSession protects mutating routes by requiring an unlocked admin session.
func AdminSession(sessions SessionParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "admin session required"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := sessions.ParseSession(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// AdminClaims returns the session claims attached by AdminSession.
func AdminClaims(c *gin.Context) *models.AdminClaims {
	value, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}
