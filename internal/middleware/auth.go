package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"practico/internal/models"
	"practico/internal/services"
)

// UserKey is where RequireSession puts the resolved *models.User.
const UserKey = "user"

type SessionValidator interface {
	Validate(ctx context.Context, credential string) (*models.User, error)
}

// BearerToken reads "Authorization: JWT <token>" or "Bearer <token>".
func BearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "JWT") && !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireSession admits only requests carrying the user's live session.
func RequireSession(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight пропускаем
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := BearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "msg": "No token provided"})
			return
		}

		user, err := sessions.Validate(c.Request.Context(), tokenStr)
		if err != nil {
			status, body := SessionFailure(err)
			if status == http.StatusInternalServerError {
				log.Printf("[auth][session] validate failed path=%s: %v", c.FullPath(), err)
			}
			c.AbortWithStatusJSON(status, body)
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// SessionFailure renders a session validation error.
func SessionFailure(err error) (int, gin.H) {
	switch {
	case errors.Is(err, services.ErrSessionMismatch):
		return http.StatusUnauthorized, gin.H{
			"success":        false,
			"msg":            "Session expired - You were logged in from another device",
			"sessionExpired": true,
		}
	case errors.Is(err, services.ErrSessionExpired):
		return http.StatusUnauthorized, gin.H{
			"success":        false,
			"msg":            "Session expired due to inactivity",
			"sessionExpired": true,
		}
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, gin.H{"success": false, "msg": "Invalid token"}
	}
	return http.StatusInternalServerError, gin.H{"success": false, "msg": "Server error"}
}

// CurrentUser returns the user set by RequireSession.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
