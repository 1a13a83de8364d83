package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// MediaManager indexes objects of the object store.
type MediaManager interface {
	List(ctx context.Context) ([]*content.MediaFile, error)
	Register(ctx context.Context, file *content.MediaFile) (*content.MediaFile, *admin.RevalidationResult, error)
	Delete(ctx context.Context, id string, deleteObject bool) (*admin.RevalidationResult, error)
}

// RegisterMediaRequest names an object that is already stored.
type RegisterMediaRequest struct {
	Path     string `json:"path" binding:"required"`
	Filename string `json:"filename"`
	AltText  string `json:"altText"`
	MimeType string `json:"mimeType"`
}

// MediaHandlers contains the media index endpoints
type MediaHandlers struct {
	media  MediaManager
	logger *logging.ChanneledLogger
}

// NewMediaHandlers creates media handlers with injected dependencies
func NewMediaHandlers(media MediaManager, logger *logging.ChanneledLogger) *MediaHandlers {
	return &MediaHandlers{
		media:  media,
		logger: logger,
	}
}

// GetMediaFiles lists every indexed media file
func (h *MediaHandlers) GetMediaFiles(c *gin.Context) {
	start := time.Now()
	h.logger.Storage().Debug("Received get media files request", "method", c.Request.Method, "path", c.Request.URL.Path)

	files, err := h.media.List(c.Request.Context())
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Storage().Info("Get media files request completed", "count", len(files), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"count": len(files),
	})
}

// PostMediaFile registers an existing object as a media file
func (h *MediaHandlers) PostMediaFile(c *gin.Context) {
	start := time.Now()
	h.logger.Storage().Debug("Received post media file request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req RegisterMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	file, result, err := h.media.Register(c.Request.Context(), &content.MediaFile{
		Path:     req.Path,
		Filename: req.Filename,
		AltText:  req.AltText,
		MimeType: req.MimeType,
	})
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Storage().Info("Post media file request completed", "id", file.ID, "path", file.Path, "duration", time.Since(start))
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"file":         file,
		"revalidation": result,
	})
}

// DeleteMediaFile removes a media row, and its object when ?deleteObject=true
func (h *MediaHandlers) DeleteMediaFile(c *gin.Context) {
	start := time.Now()
	id := c.Param("id")
	h.logger.Storage().Debug("Received delete media file request", "method", c.Request.Method, "path", c.Request.URL.Path)

	deleteObject := false
	if raw := c.Query("deleteObject"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deleteObject must be a boolean"})
			return
		}
		deleteObject = parsed
	}

	result, err := h.media.Delete(c.Request.Context(), id, deleteObject)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Storage().Info("Delete media file request completed", "id", id, "deleteObject", deleteObject, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"revalidation": result,
	})
}
