package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// Pinger reports content store reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CacheSummarizer reports render cache occupancy.
type CacheSummarizer interface {
	Summary() map[string]any
}

// HealthHandlers serves the liveness endpoint
type HealthHandlers struct {
	db      Pinger
	cache   CacheSummarizer
	logger  *logging.ChanneledLogger
	started time.Time
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(db Pinger, cache CacheSummarizer, logger *logging.ChanneledLogger) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		logger:  logger,
		started: time.Now(),
	}
}

// GetHealth answers 503 when the content store cannot be reached
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	database := gin.H{"status": "ok"}
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Database().Error("Health check ping failed", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
		database = gin.H{"status": "unreachable", "error": err.Error()}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"database":  database,
		"pageCache": h.cache.Summary(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
