package content

import (
	"context"
	"database/sql"
	"testing"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	"github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/database"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewTableCreator().CreateSchema(db))
	return db
}

func TestContentItemRepository_UpsertKeepsOneLiveValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewContentItemRepository(newTestDB(t), logging.NewNopLogger())

	first := &content.ContentItem{Page: "home", Section: "hero", ContentKey: "title", ContentValue: "Hello"}
	require.NoError(t, repo.Upsert(ctx, first))
	require.NotEmpty(t, first.ID)
	require.NotEmpty(t, first.UpdatedAt)

	second := &content.ContentItem{Page: "home", Section: "hero", ContentKey: "title", ContentValue: "Welcome"}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	items, err := repo.FindByPage(ctx, "home")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Welcome", items[0].ContentValue)

	other, err := repo.FindByPage(ctx, "about")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestContentItemRepository_ClearValueIsConditional(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewContentItemRepository(newTestDB(t), logging.NewNopLogger())

	item := &content.ContentItem{Page: "home", Section: "hero", ContentKey: "image_url", ContentValue: "https://x/a.png"}
	require.NoError(t, repo.Upsert(ctx, item))

	err := repo.ClearValue(ctx, item.ID, "https://x/other.png")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.ClearValue(ctx, item.ID, "https://x/a.png"))

	items, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].ContentValue)

	assert.ErrorIs(t, repo.ClearValue(ctx, item.ID, "https://x/a.png"), repositories.ErrNotFound)
}

func TestContentItemRepository_ReplaceAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewContentItemRepository(newTestDB(t), logging.NewNopLogger())

	for _, key := range []string{"logo", "background_image"} {
		require.NoError(t, repo.Upsert(ctx, &content.ContentItem{
			Page: "home", Section: "hero", ContentKey: key, ContentValue: "https://x/images/a.png",
		}))
	}

	n, err := repo.ReplaceValue(ctx, "https://x/images/a.png", "https://x/media/a.png")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, repo.Delete(ctx, "home", "hero", "logo"))
	assert.ErrorIs(t, repo.Delete(ctx, "home", "hero", "logo"), repositories.ErrNotFound)

	items, err := repo.FindByPage(ctx, "home")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://x/media/a.png", items[0].ContentValue)
}

func TestMediaFileRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewMediaFileRepository(newTestDB(t), logging.NewNopLogger())

	file := &content.MediaFile{
		ID:         "m1",
		Filename:   "a.png",
		Path:       "images/a.png",
		URL:        "http://cdn/images/a.png",
		Size:       10,
		MimeType:   "image/png",
		UploadedAt: "2024-01-01 10:00:00",
	}
	require.NoError(t, repo.Store(ctx, file))

	found, err := repo.FindByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, file, found)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := repo.RewritePath(ctx, "images/a.png", "media/a.png", "a.png", "http://cdn/media/a.png")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "media/a.png", all[0].Path)
	assert.Equal(t, "http://cdn/media/a.png", all[0].URL)

	assert.ErrorIs(t, repo.DeleteIfPath(ctx, "m1", "images/a.png"), repositories.ErrNotFound)
	require.NoError(t, repo.DeleteIfPath(ctx, "m1", "media/a.png"))
	assert.ErrorIs(t, repo.Delete(ctx, "m1"), repositories.ErrNotFound)
}

func TestRecordRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRecordRepository(db, logging.NewNopLogger())

	_, err := db.Exec(`INSERT INTO project_categories (id, name, icon_url) VALUES
		('pc1', 'Web', 'http://cdn/icons/web.svg'),
		('pc2', 'Print', NULL),
		('pc3', 'Video', '')`)
	require.NoError(t, err)

	refs, err := repo.FindImageReferences(ctx, "project_categories")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, &content.ImageReference{
		Table: "project_categories", RecordID: "pc1", Field: "icon_url",
		Value: "http://cdn/icons/web.svg", Label: "Web",
	}, refs[0])

	assert.ErrorIs(t, repo.ClearImage(ctx, "project_categories", "pc1", "http://cdn/other.svg"), repositories.ErrNotFound)
	require.NoError(t, repo.ClearImage(ctx, "project_categories", "pc1", "http://cdn/icons/web.svg"))

	refs, err = repo.FindImageReferences(ctx, "project_categories")
	require.NoError(t, err)
	assert.Empty(t, refs)

	require.NoError(t, repo.SetImage(ctx, "project_categories", "pc2", "http://cdn/icons/print.svg"))
	n, err := repo.ReplaceImage(ctx, "project_categories", "http://cdn/icons/print.svg", "http://cdn/categories/print.svg")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, "project_categories", "pc3"))

	_, err = repo.FindImageReferences(ctx, "users; DROP TABLE products")
	assert.ErrorIs(t, err, services.ErrUnknownTable)
}
