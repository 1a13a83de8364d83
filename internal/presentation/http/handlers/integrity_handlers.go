package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// ImageScanner runs one integrity pass.
type ImageScanner interface {
	Scan(ctx context.Context, dryRun bool) *admin.CleanupReport
}

// FolderReorganizer runs one storage reorganization pass.
type FolderReorganizer interface {
	Reorganize(ctx context.Context) *admin.ReorganizationReport
}

// CleanupRequest is the body of a cleanup call. A missing dryRun means a dry run.
type CleanupRequest struct {
	DryRun *bool `json:"dryRun"`
}

// IntegrityHandlers contains the administrator-triggered maintenance passes
type IntegrityHandlers struct {
	scanner     ImageScanner
	reorganizer FolderReorganizer
	logger      *logging.ChanneledLogger
}

// NewIntegrityHandlers creates integrity handlers with injected dependencies
func NewIntegrityHandlers(scanner ImageScanner, reorganizer FolderReorganizer, logger *logging.ChanneledLogger) *IntegrityHandlers {
	return &IntegrityHandlers{
		scanner:     scanner,
		reorganizer: reorganizer,
		logger:      logger,
	}
}

// PostCleanupImages scans every image reference and, unless dryRun is true, repairs the
// broken ones found by this same pass. A failed section answers 500 with the partial report.
func (h *IntegrityHandlers) PostCleanupImages(c *gin.Context) {
	start := time.Now()
	h.logger.Integrity().Debug("Received cleanup images request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	dryRun := req.DryRun == nil || *req.DryRun

	// A pass runs to completion even if the caller goes away.
	report := h.scanner.Scan(context.WithoutCancel(c.Request.Context()), dryRun)

	status := http.StatusOK
	if report.Failed() {
		status = http.StatusInternalServerError
	}

	h.logger.Integrity().Info("Cleanup images request completed",
		"scanId", report.ScanID, "dryRun", dryRun, "broken", report.Summary.TotalBrokenItems,
		"cleaned", report.Summary.CleanedReferences, "status", status, "duration", time.Since(start))

	c.JSON(status, gin.H{
		"success": !report.Failed(),
		"message": cleanupMessage(report),
		"data":    report,
	})
}

func cleanupMessage(report *admin.CleanupReport) string {
	if report.DryRun {
		return fmt.Sprintf("Dry run found %d broken image references", report.Summary.TotalBrokenItems)
	}
	return fmt.Sprintf("Found %d broken image references, cleaned %d", report.Summary.TotalBrokenItems, report.Summary.CleanedReferences)
}

// PostReorganizeFolders moves objects out of legacy folders and rewrites their references
func (h *IntegrityHandlers) PostReorganizeFolders(c *gin.Context) {
	start := time.Now()
	h.logger.Storage().Debug("Received reorganize folders request", "method", c.Request.Method, "path", c.Request.URL.Path)

	report := h.reorganizer.Reorganize(context.WithoutCancel(c.Request.Context()))

	h.logger.Storage().Info("Reorganize folders request completed",
		"moved", report.FilesMoved, "updated", report.FilesUpdated, "errors", len(report.Errors), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"success": len(report.Errors) == 0,
		"message": fmt.Sprintf("Moved %d files, updated %d references", report.FilesMoved, report.FilesUpdated),
		"results": report,
	})
}
