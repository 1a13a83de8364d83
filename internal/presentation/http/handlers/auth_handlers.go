package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/application/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// Authenticator issues and checks admin tokens.
type Authenticator interface {
	AuthenticateAdmin(password string) *services.AuthResult
	ValidateAdminToken(token string) bool
}

// LoginRequest is the body of an admin login.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthHandlers contains the admin authentication endpoints
type AuthHandlers struct {
	authService Authenticator
	logger      *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService Authenticator, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// PostLogin exchanges the admin password for a token, also set as the admin cookie
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result := h.authService.AuthenticateAdmin(req.Password)
	if !result.Success {
		h.logger.Auth().Warn("Login request rejected", "clientIP", c.ClientIP(), "duration", time.Since(start))
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": result.Error})
		return
	}

	maxAge := max(int(time.Until(result.ExpiresAt).Seconds()), 0)
	c.SetCookie(middleware.AdminCookieName, result.Token, maxAge, "/", "", false, true)

	h.logger.Auth().Info("Login request completed", "role", result.Role, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}

// PostLogout clears the admin cookie
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	c.SetCookie(middleware.AdminCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// AuthMiddleware guards the admin route group
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return middleware.AdminAuthMiddleware(h.authService, h.logger)
}
