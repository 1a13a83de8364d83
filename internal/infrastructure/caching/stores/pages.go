// Package stores provides concrete cache store implementations
package stores

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/caching/types"
)

// DefaultPageTTL bounds how long a rendered page is served without revalidation.
const DefaultPageTTL = time.Hour

var _ repositories.RenderCache = (*PagesStore)(nil)

// PagesStore is the in-process render cache: rendered payloads keyed by render path
// with a tag index for dependency invalidation.
type PagesStore struct {
	cache *types.PageCache
	ttl   time.Duration
}

// NewPagesStore creates a new page cache store
func NewPagesStore(ttl time.Duration) *PagesStore {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PagesStore{
		cache: &types.PageCache{
			Pages: make(map[string]*types.PageEntry),
			Tags:  make(map[string][]string),
		},
		ttl: ttl,
	}
}

// Get returns the cached payload for path when present and not expired.
func (ps *PagesStore) Get(path string) (*types.PageEntry, bool) {
	ps.cache.Mu.RLock()
	defer ps.cache.Mu.RUnlock()

	entry, exists := ps.cache.Pages[path]
	if !exists || time.Since(entry.LastUpdated) > ps.ttl {
		return nil, false
	}
	return entry, true
}

// Generation returns the invalidation counter. Capture it before reading the data a
// payload is built from and hand it to SetIfGeneration.
func (ps *PagesStore) Generation() uint64 {
	ps.cache.Mu.RLock()
	defer ps.cache.Mu.RUnlock()
	return ps.cache.Generation
}

// Set stores a payload for path and records it as dependent on tags.
func (ps *PagesStore) Set(path string, body []byte, tags []string) {
	ps.cache.Mu.Lock()
	defer ps.cache.Mu.Unlock()
	ps.set(path, body, tags)
}

// SetIfGeneration stores the payload only when no invalidation happened since
// generation was read. It reports whether the payload was stored.
func (ps *PagesStore) SetIfGeneration(path string, body []byte, tags []string, generation uint64) bool {
	ps.cache.Mu.Lock()
	defer ps.cache.Mu.Unlock()
	if ps.cache.Generation != generation {
		return false
	}
	ps.set(path, body, tags)
	return true
}

func (ps *PagesStore) set(path string, body []byte, tags []string) {
	ps.cache.Pages[path] = &types.PageEntry{
		Path:        path,
		Body:        body,
		Tags:        slices.Clone(tags),
		LastUpdated: time.Now().UTC(),
	}

	for _, tag := range tags {
		if !slices.Contains(ps.cache.Tags[tag], path) {
			ps.cache.Tags[tag] = append(ps.cache.Tags[tag], path)
		}
	}
}

// InvalidatePath drops path. A layout invalidation drops every page below path as well.
func (ps *PagesStore) InvalidatePath(_ context.Context, path string, kind string) error {
	ps.cache.Mu.Lock()
	defer ps.cache.Mu.Unlock()
	ps.cache.Generation++

	var deleted []string
	if kind == repositories.PathKindLayout {
		prefix := strings.TrimSuffix(path, "/") + "/"
		for cached := range ps.cache.Pages {
			if cached == path || strings.HasPrefix(cached, prefix) {
				deleted = append(deleted, cached)
			}
		}
	} else if _, exists := ps.cache.Pages[path]; exists {
		deleted = append(deleted, path)
	}

	for _, p := range deleted {
		delete(ps.cache.Pages, p)
	}
	ps.cleanupOrphanedTags(deleted)
	return nil
}

// InvalidateTag drops every page that was stored with tag.
func (ps *PagesStore) InvalidateTag(_ context.Context, tag string) error {
	ps.cache.Mu.Lock()
	defer ps.cache.Mu.Unlock()
	ps.cache.Generation++

	dependents, exists := ps.cache.Tags[tag]
	if !exists {
		return nil
	}

	for _, path := range dependents {
		delete(ps.cache.Pages, path)
	}
	delete(ps.cache.Tags, tag)
	ps.cleanupOrphanedTags(dependents)
	return nil
}

// cleanupOrphanedTags removes deleted paths from the tag index. Callers hold the lock.
func (ps *PagesStore) cleanupOrphanedTags(deleted []string) {
	if len(deleted) == 0 {
		return
	}
	for tag, paths := range ps.cache.Tags {
		filtered := slices.DeleteFunc(slices.Clone(paths), func(p string) bool {
			return slices.Contains(deleted, p)
		})
		if len(filtered) == 0 {
			delete(ps.cache.Tags, tag)
		} else {
			ps.cache.Tags[tag] = filtered
		}
	}
}

// PurgeExpired drops every page older than the TTL and returns how many were dropped.
func (ps *PagesStore) PurgeExpired() int {
	ps.cache.Mu.Lock()
	defer ps.cache.Mu.Unlock()

	var expired []string
	for path, entry := range ps.cache.Pages {
		if time.Since(entry.LastUpdated) > ps.ttl {
			expired = append(expired, path)
		}
	}
	for _, path := range expired {
		delete(ps.cache.Pages, path)
	}
	ps.cleanupOrphanedTags(expired)
	return len(expired)
}

// Summary returns cache status for the health endpoint
func (ps *PagesStore) Summary() map[string]any {
	ps.cache.Mu.RLock()
	defer ps.cache.Mu.RUnlock()

	active, expired := 0, 0
	for _, entry := range ps.cache.Pages {
		if time.Since(entry.LastUpdated) <= ps.ttl {
			active++
		} else {
			expired++
		}
	}
	return map[string]any{
		"totalPages":   len(ps.cache.Pages),
		"activePages":  active,
		"expiredPages": expired,
		"tags":         len(ps.cache.Tags),
	}
}
