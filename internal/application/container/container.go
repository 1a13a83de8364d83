// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/application/services"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/caching/render"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/media"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/probe"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/security"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/storage"
	"github.com/AtRiskMedia/sitekeep/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Consistency services
	RevalidationService     *services.RevalidationService
	FreshnessService        *services.FreshnessService
	ImageCleanupService     *services.ImageCleanupService
	FolderReorganizeService *services.FolderReorganizeService

	// Admin pass-through services
	ContentService *services.ContentService
	MediaService   *services.MediaService
	RecordService  *services.RecordService
	AuthService    *services.AuthService

	// Infrastructure Dependencies
	Logger     *logging.ChanneledLogger
	Metrics    *metrics.Metrics
	DB         *database.DB
	Store      *storage.FilesystemStore
	PagesStore *stores.PagesStore
	Cleanup    *cleanup.Worker
}

// NewContainer opens the content store and object store described by pkg/config and
// wires every service on top of them.
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	start := time.Now()

	revalidationTable, folderMapping, err := domainservices.LoadStaticTables(config.StaticTablesFile)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnectionWithLogger(database.Options{
		Driver:       config.DatabaseDriver,
		URL:          config.DatabaseURL,
		AuthToken:    config.DatabaseAuthToken,
		MaxOpenConns: config.DBMaxOpenConns,
		MaxIdleConns: config.DBMaxIdleConns,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare content store schema: %w", err)
	}

	store, err := storage.NewFilesystemStore(config.MediaRoot, config.MediaPublicBaseURL, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := metrics.New()
	mediaFiles := content.NewMediaFileRepository(db.DB, logger)
	contentItems := content.NewContentItemRepository(db.DB, logger)
	records := content.NewRecordRepository(db.DB, logger)

	pages := stores.NewPagesStore(config.PageCacheTTL)
	renderCache := render.Fanout{pages}
	if config.RevalidateWebhookURL != "" {
		renderCache = append(renderCache, render.NewWebhookCache(config.RevalidateWebhookURL, config.RevalidateSecret, config.RevalidateTimeout))
		logger.Startup().Info("Render cache webhook enabled", "endpoint", config.RevalidateWebhookURL)
	}
	revalidator := services.NewRevalidationService(revalidationTable, renderCache, config.RevalidateTimeout, logger, m)

	var verifier services.ImageVerifier
	if config.ScanVerifyImageContent {
		verifier = media.NewImageVerifier(store)
	}

	jwtSecret := config.JWTSecret
	if jwtSecret == "" {
		if jwtSecret, err = security.GenerateSecureKey(64); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Auth().Warn("JWT_SECRET not set; admin tokens will not survive a restart")
	}

	c := &Container{
		RevalidationService: revalidator,
		FreshnessService:    services.NewFreshnessService(contentItems, logger, m),
		ImageCleanupService: services.NewImageCleanupService(services.ImageCleanupDeps{
			MediaFiles:   mediaFiles,
			ContentItems: contentItems,
			Records:      records,
			Store:        store,
			Prober:       probe.NewReferenceProber(store, probe.NewHTTPProber(config.ProbeTimeout)),
			Verifier:     verifier,
			Revalidator:  revalidator,
			Concurrency:  config.ScanConcurrency,
		}, logger, m),
		FolderReorganizeService: services.NewFolderReorganizeService(services.FolderReorganizeDeps{
			MediaFiles:   mediaFiles,
			ContentItems: contentItems,
			Records:      records,
			Store:        store,
			Folders:      folderMapping,
			Revalidator:  revalidator,
			Rewrite: services.RewritePolicy{
				MaxTries:       uint(max(config.RewriteMaxTries, 1)),
				MaxElapsedTime: config.RewriteMaxElapsedTime,
			},
		}, logger, m),

		ContentService: services.NewContentService(contentItems, pages, revalidator, logger),
		MediaService:   services.NewMediaService(mediaFiles, store, revalidator, logger),
		RecordService:  services.NewRecordService(records, revalidator, logger),
		AuthService: services.NewAuthService(services.AuthConfig{
			PasswordHash: config.AdminPasswordHash,
			JWTSecret:    jwtSecret,
			TokenTTL:     config.AdminTokenTTL,
		}, logger),

		Logger:     logger,
		Metrics:    m,
		DB:         db,
		Store:      store,
		PagesStore: pages,
		Cleanup:    cleanup.NewWorker(pages, cleanup.NewConfig(), logger),
	}

	logger.LogStartupPhase("container", time.Since(start), true)
	return c, nil
}

// Close releases the content store connection and flushes log files.
func (c *Container) Close() error {
	var firstErr error
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.Logger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
