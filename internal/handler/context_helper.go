package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-ops-api/internal/middleware"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

// actorFromContext resolves the audit actor of the unlocked admin session.
func actorFromContext(c *gin.Context) (string, error) {
	claims := middleware.AdminClaims(c)
	if claims == nil || claims.Actor == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "admin session required")
	}
	return claims.Actor, nil
}

// queryFirst returns the first non-empty query value among the given keys.
func queryFirst(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
	}
	return value, nil
}

func queryBool(c *gin.Context, keys ...string) (bool, error) {
	raw := queryFirst(c, keys...)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, keys[0]+" must be a boolean")
	}
	return value, nil
}
