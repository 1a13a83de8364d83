package render

import (
	"context"
	"errors"

	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
)

var _ repositories.RenderCache = Fanout(nil)

// Fanout forwards every invalidation to each backend. All backends are called even
// when an earlier one fails; the errors are joined.
type Fanout []repositories.RenderCache

func (f Fanout) InvalidatePath(ctx context.Context, path string, kind string) error {
	var errs []error
	for _, backend := range f {
		if err := backend.InvalidatePath(ctx, path, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) InvalidateTag(ctx context.Context, tag string) error {
	var errs []error
	for _, backend := range f {
		if err := backend.InvalidateTag(ctx, tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
