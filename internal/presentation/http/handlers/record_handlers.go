package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// RecordManager mutates structured records.
type RecordManager interface {
	SetImage(ctx context.Context, table, id, value string) (*admin.RevalidationResult, error)
	Delete(ctx context.Context, table, id string) (*admin.RevalidationResult, error)
}

// RecordImageRequest carries the new image value. Empty clears the field.
type RecordImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// RecordHandlers contains the structured record endpoints
type RecordHandlers struct {
	records RecordManager
	logger  *logging.ChanneledLogger
}

// NewRecordHandlers creates record handlers with injected dependencies
func NewRecordHandlers(records RecordManager, logger *logging.ChanneledLogger) *RecordHandlers {
	return &RecordHandlers{
		records: records,
		logger:  logger,
	}
}

// PutRecordImage sets the image field of one record
func (h *RecordHandlers) PutRecordImage(c *gin.Context) {
	start := time.Now()
	table, id := c.Param("table"), c.Param("id")
	h.logger.Content().Debug("Received put record image request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req RecordImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.records.SetImage(c.Request.Context(), table, id, req.ImageURL)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("Put record image request completed", "table", table, "id", id, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"revalidation": result,
	})
}

// DeleteRecord removes one record
func (h *RecordHandlers) DeleteRecord(c *gin.Context) {
	start := time.Now()
	table, id := c.Param("table"), c.Param("id")
	h.logger.Content().Debug("Received delete record request", "method", c.Request.Method, "path", c.Request.URL.Path)

	result, err := h.records.Delete(c.Request.Context(), table, id)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("Delete record request completed", "table", table, "id", id, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"revalidation": result,
	})
}
