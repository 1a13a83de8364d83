// Package security provides admin token and password utilities
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminRole      = "admin"
	AdminTokenType = "admin_auth"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrAuthNotConfigured = errors.New("admin authentication is not configured")
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ValidateAdminToken accepts only tokens issued by GenerateAdminToken.
func ValidateAdminToken(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims["role"] != AdminRole || claims["type"] != AdminTokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateAdminToken creates a signed admin session token
func GenerateAdminToken(jwtSecret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expires := now.Add(ttl)

	claims := jwt.MapClaims{
		"role": AdminRole,
		"type": AdminTokenType,
		"jti":  GenerateULID(),
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expires, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password with a bcrypt hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}
