// Package services provides application-level orchestration services
package services

import (
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/security"
)

// AuthConfig holds the admin credential settings.
type AuthConfig struct {
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

// AuthService handles admin authentication and token checks
type AuthService struct {
	config AuthConfig
	logger *logging.ChanneledLogger
}

// NewAuthService creates a new authentication service
func NewAuthService(config AuthConfig, logger *logging.ChanneledLogger) *AuthService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		config: config,
		logger: logger,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Configured reports whether admin login is possible at all.
func (a *AuthService) Configured() bool {
	return a.config.PasswordHash != "" && a.config.JWTSecret != ""
}

// AuthenticateAdmin checks password against the configured bcrypt hash and issues an
// admin token.
func (a *AuthService) AuthenticateAdmin(password string) *AuthResult {
	if !a.Configured() {
		a.logger.Auth().Error("Admin login attempted but authentication is not configured")
		return &AuthResult{Success: false, Error: security.ErrAuthNotConfigured.Error()}
	}

	if err := security.CheckPassword(a.config.PasswordHash, password); err != nil {
		a.logger.Auth().Warn("Admin login rejected")
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, expires, err := security.GenerateAdminToken(a.config.JWTSecret, a.config.TokenTTL)
	if err != nil {
		a.logger.Auth().Error("Token generation failed", "error", err)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.Auth().Info("Admin login succeeded", "expiresAt", expires)
	return &AuthResult{Token: token, Role: security.AdminRole, ExpiresAt: expires, Success: true}
}

// ValidateAdminToken reports whether token is a live admin token
func (a *AuthService) ValidateAdminToken(token string) bool {
	if token == "" || a.config.JWTSecret == "" {
		return false
	}
	if _, err := security.ValidateAdminToken(token, a.config.JWTSecret); err != nil {
		a.logger.Auth().Debug("Admin token rejected", "error", err)
		return false
	}
	return true
}
