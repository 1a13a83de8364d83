// Package services provides storage folder reorganization orchestration
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/metrics"
	"github.com/cenkalti/backoff/v5"
)

// RewritePolicy bounds the retries of the reference rewrite step.
type RewritePolicy struct {
	MaxTries       uint
	MaxElapsedTime time.Duration
	// InitialInterval overrides the backoff's first wait when positive.
	InitialInterval time.Duration
}

// FolderReorganizeDeps collects the collaborators of the reorganizer.
type FolderReorganizeDeps struct {
	MediaFiles   repositories.MediaFileRepository
	ContentItems repositories.ContentItemRepository
	Records      repositories.RecordRepository
	Store        repositories.ObjectStore
	Folders      *domainservices.FolderMapping
	Revalidator  Revalidator
	Rewrite      RewritePolicy
}

// FolderReorganizeService moves objects out of legacy folders and rewrites every
// reference to them. Each object is a two step saga: the move is never undone, and a
// failed rewrite is retried toward the same target.
type FolderReorganizeService struct {
	deps    FolderReorganizeDeps
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewFolderReorganizeService creates a new folder reorganize service singleton
func NewFolderReorganizeService(deps FolderReorganizeDeps, logger *logging.ChanneledLogger, m *metrics.Metrics) *FolderReorganizeService {
	if deps.Rewrite.MaxTries == 0 {
		deps.Rewrite.MaxTries = 1
	}
	return &FolderReorganizeService{
		deps:    deps,
		logger:  logger,
		metrics: m,
	}
}

// rewriteOutcome is what one reference rewrite touched.
type rewriteOutcome struct {
	rows         int64
	contentTypes map[string]bool
}

// Reorganize processes every legacy folder of the mapping in sorted order.
func (s *FolderReorganizeService) Reorganize(ctx context.Context) *admin.ReorganizationReport {
	start := time.Now()
	report := admin.NewReorganizationReport()
	report.NewFolderStructure = s.deps.Folders.CanonicalFolders()
	touched := make(map[string]bool)

	for _, legacy := range s.deps.Folders.LegacyFolders() {
		canonical, _ := s.deps.Folders.Target(legacy)
		s.reorganizeFolder(ctx, report, legacy, canonical, touched)
	}

	s.logger.Storage().Info("Folder reorganization completed",
		"foldersProcessed", report.FoldersProcessed,
		"filesProcessed", report.FilesProcessed,
		"filesMoved", report.FilesMoved,
		"filesUpdated", report.FilesUpdated,
		"foldersDeleted", report.FoldersDeleted,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
		"duration", time.Since(start))

	if report.FilesUpdated > 0 && s.deps.Revalidator != nil {
		touched[domainservices.ContentTypeMedia] = true
		for _, contentType := range domainservices.KnownContentTypes {
			if !touched[contentType] {
				continue
			}
			if _, err := s.deps.Revalidator.Trigger(ctx, contentType, ""); err != nil {
				s.logger.Storage().Error("Revalidation after reorganization failed", "contentType", contentType, "error", err)
			}
		}
	}
	return report
}

func (s *FolderReorganizeService) reorganizeFolder(ctx context.Context, report *admin.ReorganizationReport, legacy, canonical string, touched map[string]bool) {
	log := s.logger.Storage().With("folder", legacy, "target", canonical)

	objects, err := s.deps.Store.List(ctx, legacy)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list %s: %v", legacy, err))
		log.Error("Failed to list legacy folder", "error", err)
		return
	}
	if len(objects) == 0 {
		log.Debug("Legacy folder empty, skipping")
		return
	}

	report.FoldersProcessed++
	for _, object := range objects {
		newKey, relocate := domainservices.RelocateKey(object.Key, canonical)
		if !relocate {
			report.Skipped++
			continue
		}
		report.FilesProcessed++
		report.ChangeLog = append(report.ChangeLog, s.relocate(ctx, report, object.Key, newKey, touched))
	}

	if err := s.deps.Store.DeleteFolder(ctx, legacy); err != nil {
		s.metrics.RecordReorganizeStep("delete-folder", err)
		log.Warn("Legacy folder not deleted", "error", err)
		return
	}
	s.metrics.RecordReorganizeStep("delete-folder", nil)
	report.FoldersDeleted++
	log.Info("Legacy folder deleted")
}

// relocate runs the saga for one object: move, then rewrite references whether or not
// the move succeeded. A target that already exists stops the saga before the rewrite.
func (s *FolderReorganizeService) relocate(ctx context.Context, report *admin.ReorganizationReport, oldKey, newKey string, touched map[string]bool) admin.FolderChange {
	change := admin.FolderChange{OldPath: oldKey, NewPath: newKey}
	var stepErrors []error

	moveErr := s.deps.Store.Move(ctx, oldKey, newKey)
	s.metrics.RecordReorganizeStep("move", moveErr)
	if errors.Is(moveErr, repositories.ErrObjectExists) {
		// Another legacy object already owns the canonical key. This one and its
		// references stay where they are.
		change.Error = fmt.Sprintf("move: %v", moveErr)
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", oldKey, change.Error))
		s.logger.Storage().Error("Move target taken, object left in place", "from", oldKey, "to", newKey, "error", moveErr)
		return change
	}
	if moveErr != nil {
		stepErrors = append(stepErrors, fmt.Errorf("move: %w", moveErr))
		s.logger.Storage().Error("Move failed", "from", oldKey, "to", newKey, "error", moveErr)
	} else {
		change.Moved = true
		report.FilesMoved++
		s.logger.Storage().Info("Moved", "from", oldKey, "to", newKey)
	}

	outcome, rewriteErr := s.rewriteWithRetry(ctx, oldKey, newKey)
	s.metrics.RecordReorganizeStep("rewrite", rewriteErr)
	if rewriteErr != nil {
		stepErrors = append(stepErrors, fmt.Errorf("rewrite references: %w", rewriteErr))
		s.logger.Storage().Error("Reference rewrite failed", "from", oldKey, "to", newKey, "error", rewriteErr)
	} else {
		change.References = outcome.rows
		if outcome.rows > 0 {
			change.Updated = true
			report.FilesUpdated++
			for contentType := range outcome.contentTypes {
				touched[contentType] = true
			}
		}
		s.logger.Storage().Info("References rewritten", "from", oldKey, "to", newKey, "rows", outcome.rows)
	}

	if err := errors.Join(stepErrors...); err != nil {
		change.Error = err.Error()
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", oldKey, err))
	}
	return change
}

func (s *FolderReorganizeService) rewriteWithRetry(ctx context.Context, oldKey, newKey string) (rewriteOutcome, error) {
	policy := backoff.NewExponentialBackOff()
	if s.deps.Rewrite.InitialInterval > 0 {
		policy.InitialInterval = s.deps.Rewrite.InitialInterval
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.deps.Rewrite.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Storage().Warn("Retrying reference rewrite", "from", oldKey, "to", newKey, "error", err, "wait", wait)
		}),
	}
	if s.deps.Rewrite.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(s.deps.Rewrite.MaxElapsedTime))
	}

	return backoff.Retry(ctx, func() (rewriteOutcome, error) {
		return s.rewriteReferences(ctx, oldKey, newKey)
	}, opts...)
}

// rewriteReferences points every stored reference to oldKey at newKey. Each statement
// is idempotent, so a partially applied attempt is safe to repeat.
func (s *FolderReorganizeService) rewriteReferences(ctx context.Context, oldKey, newKey string) (rewriteOutcome, error) {
	outcome := rewriteOutcome{contentTypes: make(map[string]bool)}
	oldURL := s.deps.Store.PublicURL(oldKey)
	newURL := s.deps.Store.PublicURL(newKey)

	n, err := s.deps.MediaFiles.RewritePath(ctx, oldKey, newKey, path.Base(newKey), newURL)
	if err != nil {
		return outcome, err
	}
	outcome.rows += n

	if n, err = s.deps.ContentItems.ReplaceValue(ctx, oldURL, newURL); err != nil {
		return outcome, err
	}
	if n > 0 {
		outcome.contentTypes[domainservices.ContentTypeContent] = true
	}
	outcome.rows += n

	for _, table := range domainservices.RecordTables() {
		if n, err = s.deps.Records.ReplaceImage(ctx, table.Name, oldURL, newURL); err != nil {
			return outcome, err
		}
		if n > 0 {
			outcome.contentTypes[table.ContentType] = true
		}
		outcome.rows += n
	}
	return outcome, nil
}
