package middleware

import (
	"net/http"
	"strings"

	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// SessionCookie carries the session token set at login.
	SessionCookie = "session"

	principalKey = "principal"
)

// AuthMiddleware resolves the session token from the session cookie or an
// "Authorization: Bearer" header and binds the principal to the request.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication required",
			})
			return
		}

		p, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if err != service.ErrUnauthenticated {
				logger.Log.Error("Session lookup failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired session",
			})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireRoles rejects callers whose role is not listed. It must run after
// AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authentication required",
			})
			return
		}

		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}

		logger.Log.Warn("Role not allowed",
			zap.String("user_id", p.UserID.String()),
			zap.String("role", string(p.Role)),
			zap.String("path", c.FullPath()),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "role " + string(p.Role) + " is not suitable for this action",
		})
	}
}

// CurrentPrincipal returns the principal bound by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}
