package services

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/metrics"
	persistence "github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/storage"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://cdn.test/media"

// recordingCache is a RenderCache that remembers every call and fails on demand.
type recordingCache struct {
	mu       sync.Mutex
	paths    []string
	layouts  []string
	tags     []string
	failOn   map[string]bool
	pageWait time.Duration
}

func newRecordingCache(failOn ...string) *recordingCache {
	c := &recordingCache{failOn: make(map[string]bool)}
	for _, target := range failOn {
		c.failOn[target] = true
	}
	return c
}

func (c *recordingCache) InvalidatePath(ctx context.Context, path string, kind string) error {
	if c.pageWait > 0 {
		select {
		case <-time.After(c.pageWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == "layout" {
		c.layouts = append(c.layouts, path)
	} else {
		c.paths = append(c.paths, path)
	}
	if c.failOn[path] {
		return errors.New("renderer unavailable")
	}
	return nil
}

func (c *recordingCache) InvalidateTag(_ context.Context, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append(c.tags, tag)
	if c.failOn[tag] {
		return errors.New("renderer unavailable")
	}
	return nil
}

// fakeProber fails for the URLs in broken and counts calls.
type fakeProber struct {
	mu     sync.Mutex
	broken map[string]bool
	calls  int
}

func (p *fakeProber) Probe(_ context.Context, rawURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.broken[rawURL] {
		return errors.New("HTTP 404 for URL " + rawURL)
	}
	return nil
}

type fixture struct {
	db          *sql.DB
	logger      *logging.ChanneledLogger
	metrics     *metrics.Metrics
	items       *persistence.ContentItemRepository
	media       *persistence.MediaFileRepository
	records     *persistence.RecordRepository
	store       *storage.FilesystemStore
	pages       *stores.PagesStore
	cache       *recordingCache
	revalidator *RevalidationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewTableCreator().CreateSchema(db))

	logger := logging.NewNopLogger()
	store, err := storage.NewFilesystemStore(t.TempDir(), testBaseURL, logger)
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		logger:  logger,
		metrics: metrics.New(),
		items:   persistence.NewContentItemRepository(db, logger),
		media:   persistence.NewMediaFileRepository(db, logger),
		records: persistence.NewRecordRepository(db, logger),
		store:   store,
		pages:   stores.NewPagesStore(time.Hour),
		cache:   newRecordingCache(),
	}
	f.revalidator = NewRevalidationService(domainservices.DefaultRevalidationTable(), f.cache, time.Second, logger, f.metrics)
	return f
}

func (f *fixture) writeObject(t *testing.T, key, body string) {
	t.Helper()
	full := filepath.Join(f.store.Root(), filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func (f *fixture) addMediaFile(t *testing.T, id, key string) {
	t.Helper()
	require.NoError(t, f.media.Store(context.Background(), &content.MediaFile{
		ID:         id,
		Filename:   filepath.Base(key),
		Path:       key,
		URL:        f.store.PublicURL(key),
		MimeType:   "image/png",
		UploadedAt: "2024-01-01 00:00:00",
	}))
}

func (f *fixture) addContent(t *testing.T, page, section, key, value, updatedAt string) *content.ContentItem {
	t.Helper()
	item := &content.ContentItem{Page: page, Section: section, ContentKey: key, ContentValue: value, UpdatedAt: updatedAt}
	require.NoError(t, f.items.Upsert(context.Background(), item))
	return item
}

func (f *fixture) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(t, err)
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
