package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/application/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// RevalidateRequest is the body of a manual revalidation.
type RevalidateRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	Page        string `json:"page"`
}

// RevalidateHandlers exposes the dispatcher directly to administrators
type RevalidateHandlers struct {
	revalidator services.Revalidator
	logger      *logging.ChanneledLogger
}

// NewRevalidateHandlers creates revalidate handlers with injected dependencies
func NewRevalidateHandlers(revalidator services.Revalidator, logger *logging.ChanneledLogger) *RevalidateHandlers {
	return &RevalidateHandlers{
		revalidator: revalidator,
		logger:      logger,
	}
}

// PostRevalidate invalidates everything configured for a content type
func (h *RevalidateHandlers) PostRevalidate(c *gin.Context) {
	start := time.Now()
	h.logger.Cache().Debug("Received revalidate request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req RevalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.revalidator.Trigger(c.Request.Context(), strings.TrimSpace(req.ContentType), strings.TrimSpace(req.Page))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	h.logger.Cache().Info("Revalidate request completed", "contentType", req.ContentType, "failures", result.Failures(), "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}
