package services

import (
	"context"
	"errors"
	"testing"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCleanupService(f *fixture, prober *fakeProber) *ImageCleanupService {
	return NewImageCleanupService(ImageCleanupDeps{
		MediaFiles:   f.media,
		ContentItems: f.items,
		Records:      f.records,
		Store:        f.store,
		Prober:       prober,
		Revalidator:  f.revalidator,
		Concurrency:  4,
	}, f.logger, f.metrics)
}

// seedBrokenSite stores one healthy and one broken item per section.
func seedBrokenSite(t *testing.T, f *fixture) *fakeProber {
	t.Helper()
	f.writeObject(t, "media/ok.png", "png")
	f.addMediaFile(t, "m-ok", "media/ok.png")
	f.addMediaFile(t, "m-gone", "media/gone.png")

	f.addContent(t, "home", "hero", "image_url", "https://img.test/ok.png", "2024-01-01 00:00:00")
	f.addContent(t, "home", "hero", "background_image", "https://img.test/dead.png", "2024-01-01 00:00:00")
	f.addContent(t, "home", "hero", "headline", "https://img.test/dead.png", "2024-01-01 00:00:00")
	f.addContent(t, "home", "hero", "logo", "/relative/logo.png", "2024-01-01 00:00:00")

	f.exec(t, `INSERT INTO categories (id, name, image_url) VALUES ('c1', 'Tools', 'https://img.test/dead-cat.png')`)
	f.exec(t, `INSERT INTO products (id, name, image_url) VALUES ('p1', 'Hammer', 'https://img.test/dead-product.png'), ('p2', 'Saw', 'https://img.test/ok.png')`)
	f.exec(t, `INSERT INTO project_categories (id, name, icon_url) VALUES ('pc1', 'Web', 'https://img.test/dead-icon.svg')`)
	f.exec(t, `INSERT INTO projects (id, title, image_url) VALUES ('pr1', 'Site', 'https://img.test/dead-project.png')`)

	return &fakeProber{broken: map[string]bool{
		"https://img.test/dead.png":         true,
		"https://img.test/dead-cat.png":     true,
		"https://img.test/dead-product.png": true,
		"https://img.test/dead-icon.svg":    true,
		"https://img.test/dead-project.png": true,
	}}
}

func TestImageCleanupService_DryRunReportsWithoutMutating(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	prober := seedBrokenSite(t, f)
	svc := newCleanupService(f, prober)

	report := svc.Scan(context.Background(), true)

	assert.True(t, report.DryRun)
	assert.NotEmpty(t, report.ScanID)
	assert.Empty(t, report.SectionErrors)
	assert.Equal(t, 1, report.ValidatedFiles)
	require.Len(t, report.BrokenMediaFiles, 1)
	assert.Equal(t, "m-gone", report.BrokenMediaFiles[0].ID)
	require.Len(t, report.BrokenContentReferences, 1)
	assert.Equal(t, "background_image", report.BrokenContentReferences[0].ContentKey)
	require.Len(t, report.BrokenProductImages, 1)
	assert.Equal(t, "p1", report.BrokenProductImages[0].ID)
	require.Len(t, report.BrokenCategoryImages, 2)
	assert.Equal(t, "categories", report.BrokenCategoryImages[0].Table)
	assert.Equal(t, "project_categories", report.BrokenCategoryImages[1].Table)
	require.Len(t, report.BrokenProjectImages, 1)

	assert.Zero(t, report.CleanedReferences)
	assert.Equal(t, 6, report.Summary.TotalBrokenItems)

	assert.Equal(t, 2, f.count(t, `SELECT COUNT(*) FROM media_files`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM content_items WHERE content_value = 'https://img.test/dead.png' AND content_key = 'background_image'`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM products WHERE image_url IS NOT NULL AND id = 'p1'`))
	assert.Empty(t, f.cache.tags, "dry runs never revalidate")
}

func TestImageCleanupService_RepairOnlyTouchesReportedItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	prober := seedBrokenSite(t, f)
	svc := newCleanupService(f, prober)

	report := svc.Scan(context.Background(), false)

	assert.False(t, report.DryRun)
	assert.True(t, report.Repaired)
	assert.Empty(t, report.RepairErrors)
	assert.Equal(t, report.Summary.TotalBrokenItems, report.CleanedReferences)
	assert.Equal(t, 6, report.Summary.CleanedReferences)

	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM media_files WHERE id = 'm-gone'`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM media_files WHERE id = 'm-ok'`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM content_items WHERE content_key = 'background_image' AND content_value = ''`))
	// same dead URL under a non-image key is not a reference
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM content_items WHERE content_key = 'headline' AND content_value = 'https://img.test/dead.png'`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM content_items WHERE content_key = 'logo' AND content_value = '/relative/logo.png'`))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM products WHERE id = 'p1' AND image_url IS NOT NULL`))
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM products WHERE id = 'p2' AND image_url IS NOT NULL`))
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM project_categories WHERE icon_url IS NOT NULL`))

	assert.Contains(t, f.cache.tags, "media")
	assert.Contains(t, f.cache.tags, "content")
	assert.Contains(t, f.cache.tags, "products")
	assert.Contains(t, f.cache.tags, "project-categories")
}

func TestImageCleanupService_MissingObjectScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addMediaFile(t, "m1", "media/missing.png")
	svc := newCleanupService(f, &fakeProber{})
	ctx := context.Background()

	dry := svc.Scan(ctx, true)
	require.Len(t, dry.BrokenMediaFiles, 1)
	assert.Equal(t, "m1", dry.BrokenMediaFiles[0].ID)
	assert.Zero(t, dry.ValidatedFiles)
	assert.Zero(t, dry.CleanedReferences)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM media_files`))

	wet := svc.Scan(ctx, false)
	assert.Equal(t, 1, wet.CleanedReferences)
	assert.Zero(t, wet.ValidatedFiles)
	assert.Equal(t, 0, f.count(t, `SELECT COUNT(*) FROM media_files`))
}

func TestImageCleanupService_ItemsFixedAfterScanAreNotRepaired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	prober := seedBrokenSite(t, f)
	svc := newCleanupService(f, prober)
	ctx := context.Background()

	report := svc.Scan(ctx, true)
	report.DryRun = false

	// fixed out-of-band between the scan and the repair
	f.exec(t, `UPDATE products SET image_url = 'https://img.test/new.png' WHERE id = 'p1'`)
	f.writeObject(t, "media/gone.png", "restored")
	require.NoError(t, f.media.Delete(ctx, "m-gone"))

	require.NoError(t, svc.Repair(ctx, report))
	assert.Equal(t, 4, report.CleanedReferences)
	assert.Len(t, report.RepairErrors, 2)
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM products WHERE id = 'p1' AND image_url = 'https://img.test/new.png'`))

	assert.ErrorIs(t, svc.Repair(ctx, report), ErrAlreadyRepaired)
}

func TestImageCleanupService_MediaRowRepointedAfterScanIsKept(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addMediaFile(t, "m1", "media/missing.png")
	svc := newCleanupService(f, &fakeProber{})
	ctx := context.Background()

	report := svc.Scan(ctx, true)
	require.Len(t, report.BrokenMediaFiles, 1)
	report.DryRun = false

	f.writeObject(t, "media/replacement.png", "png")
	f.exec(t, `UPDATE media_files SET path = 'media/replacement.png' WHERE id = 'm1'`)

	require.NoError(t, svc.Repair(ctx, report))
	assert.Zero(t, report.CleanedReferences)
	require.Len(t, report.RepairErrors, 1)
	assert.Contains(t, report.RepairErrors[0], "m1")
	assert.Equal(t, 1, f.count(t, `SELECT COUNT(*) FROM media_files WHERE id = 'm1' AND path = 'media/replacement.png'`))
}

func TestImageCleanupService_RepairRefusesDryRunReport(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newCleanupService(f, &fakeProber{})

	report := svc.Scan(context.Background(), true)
	assert.ErrorIs(t, svc.Repair(context.Background(), report), ErrDryRunReport)
}

type failingRecords struct {
	repositories.RecordRepository
	table string
}

func (r failingRecords) FindImageReferences(ctx context.Context, table string) ([]*content.ImageReference, error) {
	if table == r.table {
		return nil, errors.New("database is locked")
	}
	return r.RecordRepository.FindImageReferences(ctx, table)
}

func TestImageCleanupService_SectionFailureIsIsolated(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	prober := seedBrokenSite(t, f)
	svc := NewImageCleanupService(ImageCleanupDeps{
		MediaFiles:   f.media,
		ContentItems: f.items,
		Records:      failingRecords{RecordRepository: f.records, table: "categories"},
		Store:        f.store,
		Prober:       prober,
	}, f.logger, f.metrics)

	report := svc.Scan(context.Background(), true)

	assert.True(t, report.Failed())
	assert.Contains(t, report.SectionErrors[domainservices.SectionCategories], "categories")
	require.Len(t, report.BrokenCategoryImages, 1)
	assert.Equal(t, "project_categories", report.BrokenCategoryImages[0].Table)
	assert.Len(t, report.BrokenProductImages, 1)
	assert.Len(t, report.BrokenMediaFiles, 1)
}

type stubVerifier struct{ corrupt map[string]bool }

func (v stubVerifier) Verify(_ context.Context, key, _ string) error {
	if v.corrupt[key] {
		return errors.New("corrupt image " + key)
	}
	return nil
}

func TestImageCleanupService_VerifiesImageContent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.writeObject(t, "media/a.png", "x")
	f.writeObject(t, "media/b.png", "x")
	f.addMediaFile(t, "a", "media/a.png")
	f.addMediaFile(t, "b", "media/b.png")

	svc := NewImageCleanupService(ImageCleanupDeps{
		MediaFiles:   f.media,
		ContentItems: f.items,
		Records:      f.records,
		Store:        f.store,
		Prober:       &fakeProber{},
		Verifier:     stubVerifier{corrupt: map[string]bool{"media/b.png": true}},
	}, f.logger, f.metrics)

	report := svc.Scan(context.Background(), true)
	assert.Equal(t, 1, report.ValidatedFiles)
	require.Len(t, report.BrokenMediaFiles, 1)
	assert.Equal(t, "b", report.BrokenMediaFiles[0].ID)
}

func TestImageCleanupService_PreservesEnumerationOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ids := []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10"}
	for _, id := range ids {
		f.addMediaFile(t, id, "media/"+id+".png")
	}

	report := newCleanupService(f, &fakeProber{}).Scan(context.Background(), true)
	require.Len(t, report.BrokenMediaFiles, len(ids))
	for i, broken := range report.BrokenMediaFiles {
		assert.Equal(t, ids[i], broken.ID)
	}
}
