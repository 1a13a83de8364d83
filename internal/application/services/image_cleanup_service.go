// Package services provides image reference scan and repair orchestration
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/probe"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/security"
	"golang.org/x/sync/errgroup"
)

// ErrDryRunReport is returned when Repair is handed a report scanned as a dry run.
var ErrDryRunReport = errors.New("report was produced by a dry run")

// ErrAlreadyRepaired is returned when Repair is handed the same report twice.
var ErrAlreadyRepaired = errors.New("report has already been repaired")

// DefaultScanConcurrency is used when no positive concurrency is configured.
const DefaultScanConcurrency = 8

// ImageVerifier decodes a stored object to prove it is a readable image.
type ImageVerifier interface {
	Verify(ctx context.Context, key, contentType string) error
}

// ImageCleanupDeps collects the collaborators of the scanner.
type ImageCleanupDeps struct {
	MediaFiles   repositories.MediaFileRepository
	ContentItems repositories.ContentItemRepository
	Records      repositories.RecordRepository
	Store        repositories.ObjectStore
	Prober       probe.Prober
	Verifier     ImageVerifier // nil disables content verification
	Revalidator  Revalidator
	Concurrency  int
}

// ImageCleanupService finds image references that no longer resolve and, outside dry
// runs, repairs exactly the items its own scan reported.
type ImageCleanupService struct {
	deps      ImageCleanupDeps
	integrity *domainservices.ContentIntegrityService
	logger    *logging.ChanneledLogger
	metrics   *metrics.Metrics
}

// NewImageCleanupService creates a new image cleanup service singleton
func NewImageCleanupService(deps ImageCleanupDeps, logger *logging.ChanneledLogger, m *metrics.Metrics) *ImageCleanupService {
	if deps.Concurrency <= 0 {
		deps.Concurrency = DefaultScanConcurrency
	}
	return &ImageCleanupService{
		deps:      deps,
		integrity: domainservices.NewContentIntegrityService(),
		logger:    logger,
		metrics:   m,
	}
}

// Scan checks every media row, image-like content value and record image field. When
// dryRun is false the broken items of this report are repaired before it is returned.
// Enumeration failures are recorded per section; the report is always returned.
func (s *ImageCleanupService) Scan(ctx context.Context, dryRun bool) *admin.CleanupReport {
	start := time.Now()
	report := admin.NewCleanupReport(security.GenerateULID(), dryRun)
	log := s.logger.Integrity().With("scanId", report.ScanID)
	log.Info("Image scan started", "dryRun", dryRun, "concurrency", s.deps.Concurrency)

	s.scanMediaFiles(ctx, report)
	s.scanContentReferences(ctx, report)
	for _, table := range domainservices.RecordTables() {
		s.scanRecordImages(ctx, report, table)
	}

	if !dryRun {
		if err := s.Repair(ctx, report); err != nil {
			log.Error("Repair refused", "error", err)
		}
	}
	report.Finalize()

	log.Info("Image scan completed", "dryRun", dryRun,
		"validatedFiles", report.ValidatedFiles,
		"totalBroken", report.Summary.TotalBrokenItems,
		"cleanedReferences", report.CleanedReferences,
		"sectionErrors", len(report.SectionErrors),
		"duration", time.Since(start))
	return report
}

// probeAll runs check for every index with bounded concurrency and returns the results
// in input order.
func (s *ImageCleanupService) probeAll(ctx context.Context, n int, check func(ctx context.Context, i int) error) []error {
	results := make([]error, n)
	var g errgroup.Group
	g.SetLimit(s.deps.Concurrency)
	for i := range n {
		g.Go(func() error {
			results[i] = check(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *ImageCleanupService) sectionFailed(report *admin.CleanupReport, section, what string, err error) {
	msg := fmt.Sprintf("failed to enumerate %s: %v", what, err)
	if existing, ok := report.SectionErrors[section]; ok {
		msg = existing + "; " + msg
	}
	report.SectionErrors[section] = msg
	s.logger.LogError(logging.ChannelIntegrity, "scan:"+section, err, map[string]any{"scanId": report.ScanID, "source": what})
}

func (s *ImageCleanupService) scanMediaFiles(ctx context.Context, report *admin.CleanupReport) {
	files, err := s.deps.MediaFiles.FindAll(ctx)
	if err != nil {
		s.sectionFailed(report, domainservices.SectionMediaFiles, "media files", err)
		return
	}

	results := s.probeAll(ctx, len(files), func(ctx context.Context, i int) error {
		return s.checkMediaFile(ctx, files[i])
	})

	for i, file := range files {
		if err := results[i]; err != nil {
			report.BrokenMediaFiles = append(report.BrokenMediaFiles, admin.BrokenMediaFile{
				ID:       file.ID,
				Filename: file.Filename,
				Path:     file.Path,
				Error:    err.Error(),
			})
			s.metrics.RecordScanItem(domainservices.SectionMediaFiles, metrics.OutcomeBroken)
			s.logger.Integrity().Warn("Broken media file", "scanId", report.ScanID, "id", file.ID, "path", file.Path, "error", err)
			continue
		}
		report.ValidatedFiles++
		s.metrics.RecordScanItem(domainservices.SectionMediaFiles, metrics.OutcomeValid)
	}
}

func (s *ImageCleanupService) checkMediaFile(ctx context.Context, file *content.MediaFile) error {
	key := file.Path
	if key == "" {
		var ok bool
		if key, ok = s.deps.Store.KeyFromURL(file.URL); !ok {
			if file.URL == "" {
				return errors.New("media file has neither path nor URL")
			}
			return s.deps.Prober.Probe(ctx, file.URL)
		}
	}

	info, err := s.deps.Store.Stat(ctx, key)
	if err != nil {
		return err
	}
	if s.deps.Verifier == nil {
		return nil
	}

	contentType := file.MimeType
	if contentType == "" {
		contentType = info.ContentType
	}
	if !s.integrity.IsDecodableImage(contentType, file.Filename) {
		return nil
	}
	if contentType == "" {
		contentType = "image/" + strings.TrimPrefix(strings.ToLower(path.Ext(file.Filename)), ".")
	}
	return s.deps.Verifier.Verify(ctx, key, contentType)
}

func (s *ImageCleanupService) scanContentReferences(ctx context.Context, report *admin.CleanupReport) {
	items, err := s.deps.ContentItems.FindAll(ctx)
	if err != nil {
		s.sectionFailed(report, domainservices.SectionContent, "content items", err)
		return
	}

	var candidates []*content.ContentItem
	for _, item := range items {
		if s.integrity.IsImageReferenceKey(item.ContentKey) && s.integrity.IsProbeableURL(item.ContentValue) {
			candidates = append(candidates, item)
		}
	}

	results := s.probeAll(ctx, len(candidates), func(ctx context.Context, i int) error {
		return s.deps.Prober.Probe(ctx, strings.TrimSpace(candidates[i].ContentValue))
	})

	for i, item := range candidates {
		if err := results[i]; err != nil {
			report.BrokenContentReferences = append(report.BrokenContentReferences, admin.BrokenContentReference{
				ID:         item.ID,
				Page:       item.Page,
				Section:    item.Section,
				ContentKey: item.ContentKey,
				Value:      item.ContentValue,
				Reason:     err.Error(),
			})
			s.metrics.RecordScanItem(domainservices.SectionContent, metrics.OutcomeBroken)
			s.logger.Integrity().Warn("Broken content reference", "scanId", report.ScanID, "page", item.Page,
				"section", item.Section, "key", item.ContentKey, "error", err)
			continue
		}
		s.metrics.RecordScanItem(domainservices.SectionContent, metrics.OutcomeValid)
	}
}

func (s *ImageCleanupService) scanRecordImages(ctx context.Context, report *admin.CleanupReport, table domainservices.RecordTable) {
	refs, err := s.deps.Records.FindImageReferences(ctx, table.Name)
	if err != nil {
		s.sectionFailed(report, table.Section, table.Name, err)
		return
	}

	var candidates []*content.ImageReference
	for _, ref := range refs {
		if s.integrity.IsProbeableURL(ref.Value) {
			candidates = append(candidates, ref)
		} else {
			s.metrics.RecordScanItem(table.Section, metrics.OutcomeSkipped)
		}
	}

	results := s.probeAll(ctx, len(candidates), func(ctx context.Context, i int) error {
		return s.deps.Prober.Probe(ctx, strings.TrimSpace(candidates[i].Value))
	})

	for i, ref := range candidates {
		err := results[i]
		if err == nil {
			s.metrics.RecordScanItem(table.Section, metrics.OutcomeValid)
			continue
		}

		broken := admin.BrokenRecordImage{
			Table:    table.Name,
			ID:       ref.RecordID,
			Field:    ref.Field,
			Label:    ref.Label,
			ImageURL: ref.Value,
			Reason:   err.Error(),
		}
		switch table.Section {
		case domainservices.SectionProducts:
			report.BrokenProductImages = append(report.BrokenProductImages, broken)
		case domainservices.SectionProjects:
			report.BrokenProjectImages = append(report.BrokenProjectImages, broken)
		default:
			report.BrokenCategoryImages = append(report.BrokenCategoryImages, broken)
		}
		s.metrics.RecordScanItem(table.Section, metrics.OutcomeBroken)
		s.logger.Integrity().Warn("Broken record image", "scanId", report.ScanID, "table", table.Name,
			"id", ref.RecordID, "value", ref.Value, "error", err)
	}
}

// Repair fixes the broken items listed in report and nothing else. Conditional writes
// make items that were fixed after the scan fail instead of being cleared again; those
// failures land in report.RepairErrors and are not counted.
func (s *ImageCleanupService) Repair(ctx context.Context, report *admin.CleanupReport) error {
	if report.DryRun {
		return ErrDryRunReport
	}
	if report.Repaired {
		return ErrAlreadyRepaired
	}
	report.Repaired = true

	start := time.Now()
	touched := make(map[string]bool)

	for _, broken := range report.BrokenMediaFiles {
		err := s.deps.MediaFiles.DeleteIfPath(ctx, broken.ID, broken.Path)
		if s.recordRepair(report, domainservices.SectionMediaFiles, "media file "+broken.ID, err) {
			touched[domainservices.ContentTypeMedia] = true
		}
	}

	for _, broken := range report.BrokenContentReferences {
		err := s.deps.ContentItems.ClearValue(ctx, broken.ID, broken.Value)
		what := fmt.Sprintf("content %s/%s/%s", broken.Page, broken.Section, broken.ContentKey)
		if s.recordRepair(report, domainservices.SectionContent, what, err) {
			touched[domainservices.ContentTypeContent] = true
		}
	}

	recordLists := [][]admin.BrokenRecordImage{report.BrokenProductImages, report.BrokenCategoryImages, report.BrokenProjectImages}
	for _, list := range recordLists {
		for _, broken := range list {
			table, err := domainservices.LookupRecordTable(broken.Table)
			if err == nil {
				err = s.deps.Records.ClearImage(ctx, broken.Table, broken.ID, broken.ImageURL)
			}
			if s.recordRepair(report, table.Section, broken.Table+" "+broken.ID, err) {
				touched[table.ContentType] = true
			}
		}
	}

	s.logger.Integrity().Info("Repair completed", "scanId", report.ScanID,
		"cleanedReferences", report.CleanedReferences, "repairErrors", len(report.RepairErrors),
		"duration", time.Since(start))

	if s.deps.Revalidator != nil {
		for _, contentType := range domainservices.KnownContentTypes {
			if !touched[contentType] {
				continue
			}
			if _, err := s.deps.Revalidator.Trigger(ctx, contentType, ""); err != nil {
				s.logger.Integrity().Error("Revalidation after repair failed", "scanId", report.ScanID, "contentType", contentType, "error", err)
			}
		}
	}
	return nil
}

func (s *ImageCleanupService) recordRepair(report *admin.CleanupReport, section, what string, err error) bool {
	if err != nil {
		report.RepairErrors = append(report.RepairErrors, fmt.Sprintf("%s: %v", what, err))
		s.metrics.RecordScanItem("repair:"+section, metrics.OutcomeFailure)
		s.logger.Integrity().Error("Repair failed", "scanId", report.ScanID, "item", what, "error", err)
		return false
	}
	report.CleanedReferences++
	s.metrics.RecordScanItem("repair:"+section, metrics.OutcomeSuccess)
	s.logger.Integrity().Info("Repaired", "scanId", report.ScanID, "item", what)
	return true
}
