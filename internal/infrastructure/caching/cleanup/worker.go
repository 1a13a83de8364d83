// Package cleanup provides the background render cache sweeper
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
)

// ExpiringCache drops entries past their TTL.
type ExpiringCache interface {
	PurgeExpired() int
	Summary() map[string]any
}

// Worker periodically drops expired pages so invalidated-but-unread paths do not pile up
type Worker struct {
	cache  ExpiringCache
	config *Config
	logger *logging.ChanneledLogger
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache ExpiringCache, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Start runs until ctx is cancelled, sweeping once per configured interval
func (w *Worker) Start(ctx context.Context) {
	if w.config.CleanupInterval <= 0 {
		w.logger.Cache().Info("Cache cleanup worker disabled")
		return
	}

	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.PerformCleanup()
		}
	}
}

// PerformCleanup runs one sweep and returns the number of pages dropped
func (w *Worker) PerformCleanup() int {
	start := time.Now()
	cleaned := w.cache.PurgeExpired()

	if cleaned > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "cleaned", cleaned, "duration", time.Since(start))
	} else if w.config.VerboseReporting {
		w.logger.Cache().Info("Cache cleanup completed - no expired pages found", "duration", time.Since(start))
	}
	if w.config.VerboseReporting {
		w.logger.Cache().Debug("Page cache report", "summary", w.cache.Summary())
	}
	return cleaned
}
