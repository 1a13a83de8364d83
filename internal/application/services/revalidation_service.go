// Package services provides render cache revalidation orchestration
package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/metrics"
	"golang.org/x/sync/errgroup"
)

// LayoutPath is the render path whose layout is invalidated when a rule asks for it.
const LayoutPath = "/"

const maxParallelInvalidations = 8

// Revalidator is the dispatcher contract consumed by every mutation path.
type Revalidator interface {
	Trigger(ctx context.Context, contentType, specificPage string) (*admin.RevalidationResult, error)
}

var _ Revalidator = (*RevalidationService)(nil)

// RevalidationService fans a content mutation out to every render path and cache tag
// its content type touches.
type RevalidationService struct {
	table   *domainservices.RevalidationTable
	cache   repositories.RenderCache
	timeout time.Duration
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewRevalidationService creates a new revalidation service singleton
func NewRevalidationService(
	table *domainservices.RevalidationTable,
	cache repositories.RenderCache,
	timeout time.Duration,
	logger *logging.ChanneledLogger,
	m *metrics.Metrics,
) *RevalidationService {
	return &RevalidationService{
		table:   table,
		cache:   cache,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

type invalidation struct {
	kind   string // "path", "tag" or "layout"
	target string
	err    error
}

// Trigger invalidates everything configured for contentType, plus specificPage when the
// configured paths do not already cover it. Every call is attempted regardless of the
// others; failures are reported in the result. The only error return is for an unknown
// content type.
func (s *RevalidationService) Trigger(ctx context.Context, contentType, specificPage string) (*admin.RevalidationResult, error) {
	start := time.Now()

	rule, err := s.table.Lookup(contentType)
	if err != nil {
		s.logger.Cache().Warn("Revalidation rejected", "contentType", contentType, "error", err)
		return nil, err
	}

	paths := rule.Paths
	if specificPage != "" && !slices.Contains(paths, specificPage) {
		paths = append(paths, specificPage)
	}

	calls := make([]*invalidation, 0, len(paths)+len(rule.Tags)+1)
	for _, p := range paths {
		calls = append(calls, &invalidation{kind: "path", target: p})
	}
	for _, tag := range rule.Tags {
		calls = append(calls, &invalidation{kind: "tag", target: tag})
	}
	if rule.RevalidateLayout {
		calls = append(calls, &invalidation{kind: "layout", target: LayoutPath})
	}

	// Calls never return an error to the group so that one failure cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(maxParallelInvalidations)
	for _, call := range calls {
		g.Go(func() error {
			call.err = s.invalidate(ctx, call)
			s.metrics.RecordInvalidation(call.kind, call.err)
			if call.err != nil {
				s.logger.Cache().Error("Invalidation failed", "contentType", contentType, "kind", call.kind, "target", call.target, "error", call.err)
			} else {
				s.logger.Cache().Info("Invalidated", "contentType", contentType, "kind", call.kind, "target", call.target)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := admin.NewRevalidationResult(contentType)
	for _, call := range calls {
		switch call.kind {
		case "path":
			result.Paths = append(result.Paths, call.target)
			if call.err != nil {
				result.FailedPaths = append(result.FailedPaths, call.target)
			}
		case "tag":
			result.Tags = append(result.Tags, call.target)
			if call.err != nil {
				result.FailedTags = append(result.FailedTags, call.target)
			}
		case "layout":
			result.Layout = call.err == nil
		}
		if call.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", call.kind, call.target, call.err))
		}
	}

	s.logger.Cache().Info("Revalidation completed", "contentType", contentType, "specificPage", specificPage,
		"paths", len(result.Paths), "tags", len(result.Tags), "layout", result.Layout,
		"failures", result.Failures(), "duration", time.Since(start))
	return result, nil
}

func (s *RevalidationService) invalidate(ctx context.Context, call *invalidation) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch call.kind {
	case "tag":
		return s.cache.InvalidateTag(ctx, call.target)
	case "layout":
		return s.cache.InvalidatePath(ctx, call.target, repositories.PathKindLayout)
	default:
		return s.cache.InvalidatePath(ctx, call.target, repositories.PathKindPage)
	}
}
