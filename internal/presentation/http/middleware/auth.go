// Package middleware provides gin middleware shared by the route groups.
package middleware

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// AdminCookieName is the cookie set by a successful admin login.
const AdminCookieName = "admin_auth"

// TokenValidator checks an admin token.
type TokenValidator interface {
	ValidateAdminToken(token string) bool
}

// AdminAuthMiddleware rejects requests without a valid admin token in either the
// Authorization header or the admin cookie.
func AdminAuthMiddleware(validator TokenValidator, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticated := false

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			authenticated = validator.ValidateAdminToken(token)
		} else if adminCookie, err := c.Cookie(AdminCookieName); err == nil {
			authenticated = validator.ValidateAdminToken(adminCookie)
		}

		if !authenticated {
			logger.Auth().Warn("Unauthorized access attempt", "path", c.Request.URL.Path, "clientIP", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
