package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// ContentManager reads and mutates page content.
type ContentManager interface {
	GetPage(ctx context.Context, page string) ([]*content.ContentItem, bool, error)
	SaveItem(ctx context.Context, item *content.ContentItem) (*content.ContentItem, *admin.RevalidationResult, error)
	DeleteItem(ctx context.Context, page, section, key string) (*admin.RevalidationResult, error)
}

// ContentKeyRequest identifies one content item.
type ContentKeyRequest struct {
	Page       string `json:"page" binding:"required"`
	Section    string `json:"section" binding:"required"`
	ContentKey string `json:"contentKey" binding:"required"`
}

// ContentHandlers contains the page content endpoints
type ContentHandlers struct {
	content ContentManager
	logger  *logging.ChanneledLogger
}

// NewContentHandlers creates content handlers with injected dependencies
func NewContentHandlers(content ContentManager, logger *logging.ChanneledLogger) *ContentHandlers {
	return &ContentHandlers{
		content: content,
		logger:  logger,
	}
}

// GetPageContent returns every item of a page
func (h *ContentHandlers) GetPageContent(c *gin.Context) {
	start := time.Now()
	page := c.Param("page")
	h.logger.Content().Debug("Received get page content request", "method", c.Request.Method, "path", c.Request.URL.Path)

	items, fromCache, err := h.content.GetPage(c.Request.Context(), page)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("Get page content request completed", "page", page, "count", len(items), "cached", fromCache, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"items": items,
		"count": len(items),
	})
}

// PutContentItem creates or updates one content item and revalidates its page
func (h *ContentHandlers) PutContentItem(c *gin.Context) {
	start := time.Now()
	h.logger.Content().Debug("Received put content item request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var item content.ContentItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	// Server-managed fields.
	item.ID = ""
	item.UpdatedAt = ""

	saved, result, err := h.content.SaveItem(c.Request.Context(), &item)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("Put content item request completed", "id", saved.ID, "page", saved.Page, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"item":         saved,
		"revalidation": result,
	})
}

// DeleteContentItem removes one content item and revalidates its page
func (h *ContentHandlers) DeleteContentItem(c *gin.Context) {
	start := time.Now()
	h.logger.Content().Debug("Received delete content item request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req ContentKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.content.DeleteItem(c.Request.Context(), req.Page, req.Section, req.ContentKey)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("Delete content item request completed", "page", req.Page, "key", req.ContentKey, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"revalidation": result,
	})
}
