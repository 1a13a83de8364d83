// Package services provides page freshness token computation
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/metrics"
)

// ErrInvalidPage is returned for a missing or blank page name.
var ErrInvalidPage = errors.New("page is required")

// timestampLayouts are tried in order; zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Freshness is the change token for one page.
type Freshness struct {
	Page              string `json:"page"`
	LastUpdated       int64  `json:"lastUpdated"`
	ContentCount      int    `json:"contentCount"`
	SkippedTimestamps int    `json:"skippedTimestamps"`
}

// ETag renders the token as an entity tag value. The page is hex encoded so any page
// name yields a valid quoted tag.
func (f *Freshness) ETag() string {
	return fmt.Sprintf(`"%x-%d-%d"`, f.Page, f.LastUpdated, f.ContentCount)
}

// FreshnessService computes the per-page freshness token polled by front-end clients.
type FreshnessService struct {
	items   repositories.ContentItemRepository
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewFreshnessService creates a new freshness service singleton
func NewFreshnessService(items repositories.ContentItemRepository, logger *logging.ChanneledLogger, m *metrics.Metrics) *FreshnessService {
	return &FreshnessService{
		items:   items,
		logger:  logger,
		metrics: m,
	}
}

// ComputeFreshness returns the newest parseable updated_at of the page's items in epoch
// milliseconds. A page without items yields zero; items with unparseable timestamps are
// counted but never contribute to the maximum.
func (s *FreshnessService) ComputeFreshness(ctx context.Context, page string) (*Freshness, error) {
	start := time.Now()
	page = strings.TrimSpace(page)
	if page == "" {
		return nil, ErrInvalidPage
	}

	items, err := s.items.FindByPage(ctx, page)
	if err != nil {
		s.metrics.RecordFreshness("error")
		return nil, fmt.Errorf("failed to load content for page %s: %w", page, err)
	}

	freshness := &Freshness{Page: page, ContentCount: len(items)}
	for _, item := range items {
		ts, ok := ParseTimestamp(item.UpdatedAt)
		if !ok {
			freshness.SkippedTimestamps++
			s.logger.Content().Warn("Skipping unparseable timestamp", "page", page, "itemId", item.ID, "updatedAt", item.UpdatedAt)
			continue
		}
		if ms := ts.UnixMilli(); ms > freshness.LastUpdated {
			freshness.LastUpdated = ms
		}
	}

	if len(items) == 0 {
		s.metrics.RecordFreshness("empty")
	} else {
		s.metrics.RecordFreshness("found")
	}

	s.logger.Content().Debug("Computed freshness", "page", page, "lastUpdated", freshness.LastUpdated,
		"contentCount", freshness.ContentCount, "skipped", freshness.SkippedTimestamps, "duration", time.Since(start))
	return freshness, nil
}

// ParseTimestamp reads a stored updated_at value.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
