package services

import (
	"context"
	"testing"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleavedItems runs afterRead once, right after the first FindByPage returns.
type interleavedItems struct {
	repositories.ContentItemRepository
	afterRead func()
}

func (r *interleavedItems) FindByPage(ctx context.Context, page string) ([]*content.ContentItem, error) {
	items, err := r.ContentItemRepository.FindByPage(ctx, page)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return items, err
}

func newPageContentService(f *fixture, items repositories.ContentItemRepository) *ContentService {
	revalidator := NewRevalidationService(domainservices.DefaultRevalidationTable(), f.pages, time.Second, f.logger, f.metrics)
	return NewContentService(items, f.pages, revalidator, f.logger)
}

func TestContentService_GetPageCachesReads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addContent(t, "home", "hero", "title", "Welcome", "2024-01-01 00:00:00")
	svc := newPageContentService(f, f.items)
	ctx := context.Background()

	items, cached, err := svc.GetPage(ctx, "home")
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, items, 1)

	items, cached, err = svc.GetPage(ctx, "home")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "Welcome", items[0].ContentValue)

	_, _, err = svc.GetPage(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestContentService_SaveDuringReadIsNotCachedStale(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addContent(t, "home", "hero", "title", "Old title", "2024-01-01 00:00:00")
	items := &interleavedItems{ContentItemRepository: f.items}
	svc := newPageContentService(f, items)
	ctx := context.Background()

	items.afterRead = func() {
		_, _, err := svc.SaveItem(ctx, &content.ContentItem{Page: "home", Section: "hero", ContentKey: "title", ContentValue: "New title"})
		require.NoError(t, err)
	}

	first, cached, err := svc.GetPage(ctx, "home")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "Old title", first[0].ContentValue)

	_, ok := f.pages.Get(RenderPath("home"))
	assert.False(t, ok, "a payload read before the save must not be cached")

	second, cached, err := svc.GetPage(ctx, "home")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "New title", second[0].ContentValue)
}
