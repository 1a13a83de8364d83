package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/application/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// FreshnessComputer answers the per-page freshness query.
type FreshnessComputer interface {
	ComputeFreshness(ctx context.Context, page string) (*services.Freshness, error)
}

// SyncRequest is the body of a freshness poll.
type SyncRequest struct {
	Page string `json:"page"`
}

// SyncHandlers serves the freshness endpoint polled by front-end clients
type SyncHandlers struct {
	freshness FreshnessComputer
	logger    *logging.ChanneledLogger
}

// NewSyncHandlers creates sync handlers with injected dependencies
func NewSyncHandlers(freshness FreshnessComputer, logger *logging.ChanneledLogger) *SyncHandlers {
	return &SyncHandlers{
		freshness: freshness,
		logger:    logger,
	}
}

// PostSyncContent returns the newest update time of a page's content
func (h *SyncHandlers) PostSyncContent(c *gin.Context) {
	start := time.Now()
	h.logger.Content().Debug("Received sync content request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	freshness, err := h.freshness.ComputeFreshness(c.Request.Context(), req.Page)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	etag := freshness.ETag()
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}

	h.logger.Content().Debug("Sync content request completed", "page", freshness.Page,
		"lastUpdated", freshness.LastUpdated, "contentCount", freshness.ContentCount, "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"page":              freshness.Page,
		"lastUpdated":       freshness.LastUpdated,
		"contentCount":      freshness.ContentCount,
		"skippedTimestamps": freshness.SkippedTimestamps,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// etagMatches applies the weak comparison of If-None-Match against etag.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
