// Package services provides content mutation and read orchestration
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
)

// HomePage is the page name rendered at "/".
const HomePage = "home"

// ErrInvalidContentItem is returned when a content write is missing part of its key.
var ErrInvalidContentItem = errors.New("page, section and contentKey are required")

// RenderPath maps a page name to the path it is rendered at.
func RenderPath(page string) string {
	page = strings.Trim(strings.TrimSpace(page), "/")
	if page == "" || page == HomePage {
		return "/"
	}
	return "/" + page
}

// ContentService writes page content and serves it through the in-process page cache.
type ContentService struct {
	items       repositories.ContentItemRepository
	pages       *stores.PagesStore
	revalidator Revalidator
	logger      *logging.ChanneledLogger
}

// NewContentService creates a new content service singleton
func NewContentService(items repositories.ContentItemRepository, pages *stores.PagesStore, revalidator Revalidator, logger *logging.ChanneledLogger) *ContentService {
	return &ContentService{
		items:       items,
		pages:       pages,
		revalidator: revalidator,
		logger:      logger,
	}
}

// GetPage returns the page's items, from the page cache when it holds them.
func (s *ContentService) GetPage(ctx context.Context, page string) ([]*content.ContentItem, bool, error) {
	page = strings.TrimSpace(page)
	if page == "" {
		return nil, false, ErrInvalidPage
	}
	path := RenderPath(page)

	if entry, ok := s.pages.Get(path); ok {
		var items []*content.ContentItem
		if err := json.Unmarshal(entry.Body, &items); err == nil {
			return items, true, nil
		}
	}

	generation := s.pages.Generation()
	items, err := s.items.FindByPage(ctx, page)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load page %s: %w", page, err)
	}
	if items == nil {
		items = []*content.ContentItem{}
	}

	if body, err := json.Marshal(items); err == nil {
		if !s.pages.SetIfGeneration(path, body, []string{domainservices.ContentTypeContent, domainservices.ContentTypeMedia}, generation) {
			s.logger.Content().Debug("Page changed while loading, not cached", "path", path)
		}
	}
	return items, false, nil
}

// SaveItem upserts one content value and revalidates the page it belongs to.
func (s *ContentService) SaveItem(ctx context.Context, item *content.ContentItem) (*content.ContentItem, *admin.RevalidationResult, error) {
	start := time.Now()
	item.Page = strings.TrimSpace(item.Page)
	item.Section = strings.TrimSpace(item.Section)
	item.ContentKey = strings.TrimSpace(item.ContentKey)
	if item.Page == "" || item.Section == "" || item.ContentKey == "" {
		return nil, nil, ErrInvalidContentItem
	}

	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, nil, err
	}
	s.logger.Content().Info("Content item saved", "page", item.Page, "section", item.Section, "key", item.ContentKey, "duration", time.Since(start))

	result, err := s.revalidator.Trigger(ctx, domainservices.ContentTypeContent, RenderPath(item.Page))
	if err != nil {
		return item, nil, err
	}
	return item, result, nil
}

// DeleteItem removes one content value and revalidates its page.
func (s *ContentService) DeleteItem(ctx context.Context, page, section, key string) (*admin.RevalidationResult, error) {
	if strings.TrimSpace(page) == "" || strings.TrimSpace(section) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrInvalidContentItem
	}
	if err := s.items.Delete(ctx, page, section, key); err != nil {
		return nil, err
	}
	s.logger.Content().Info("Content item deleted", "page", page, "section", section, "key", key)

	return s.revalidator.Trigger(ctx, domainservices.ContentTypeContent, RenderPath(page))
}
