// Package handlers provides the HTTP handlers of the consistency API
package handlers

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/sitekeep/internal/application/services"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
)

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domainservices.ErrUnknownContentType),
		errors.Is(err, domainservices.ErrUnknownTable),
		errors.Is(err, services.ErrInvalidPage),
		errors.Is(err, services.ErrInvalidContentItem),
		errors.Is(err, services.ErrInvalidMediaFile):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, repositories.ErrObjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
