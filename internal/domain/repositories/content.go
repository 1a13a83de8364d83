// Package repositories defines the interfaces of the external collaborators this service
// talks to: the content store, the object store and the rendering layer's cache.
package repositories

import (
	"context"
	"errors"
	"io"

	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
)

var (
	// ErrObjectNotFound is returned by object stores when a key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists is returned by Move when the target key is already taken.
	ErrObjectExists = errors.New("object already exists")
	// ErrNotFound is returned when a content store row is missing, or no longer holds
	// the value a conditional write expected.
	ErrNotFound = errors.New("record not found")
)

// ContentItemRepository reads and writes keyed page content.
type ContentItemRepository interface {
	FindByPage(ctx context.Context, page string) ([]*content.ContentItem, error)
	FindAll(ctx context.Context) ([]*content.ContentItem, error)
	Upsert(ctx context.Context, item *content.ContentItem) error
	Delete(ctx context.Context, page, section, key string) error
	ClearValue(ctx context.Context, id, expectedValue string) error
	ReplaceValue(ctx context.Context, oldValue, newValue string) (int64, error)
}

// MediaFileRepository manages the media index rows.
type MediaFileRepository interface {
	FindAll(ctx context.Context) ([]*content.MediaFile, error)
	FindByID(ctx context.Context, id string) (*content.MediaFile, error)
	Store(ctx context.Context, file *content.MediaFile) error
	Delete(ctx context.Context, id string) error
	DeleteIfPath(ctx context.Context, id, expectedPath string) error
	RewritePath(ctx context.Context, oldPath, newPath, newFilename, newURL string) (int64, error)
}

// RecordRepository manages image-like fields on structured records
// (products, projects, categories, project categories).
type RecordRepository interface {
	FindImageReferences(ctx context.Context, table string) ([]*content.ImageReference, error)
	SetImage(ctx context.Context, table, id, value string) error
	ClearImage(ctx context.Context, table, id, expectedValue string) error
	ReplaceImage(ctx context.Context, table, oldValue, newValue string) (int64, error)
	Delete(ctx context.Context, table, id string) error
}

// ObjectStore is the binary object service addressed by hierarchical keys (folder/name).
type ObjectStore interface {
	Stat(ctx context.Context, key string) (*content.ObjectInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, folder string) ([]*content.ObjectInfo, error)
	// Move never replaces an existing object; it fails with ErrObjectExists instead.
	Move(ctx context.Context, fromKey, toKey string) error
	Delete(ctx context.Context, key string) error
	DeleteFolder(ctx context.Context, folder string) error
	PublicURL(key string) string
	KeyFromURL(rawURL string) (string, bool)
}

// RenderCache is the rendering layer's cache as seen by the dispatcher.
type RenderCache interface {
	InvalidatePath(ctx context.Context, path string, kind string) error
	InvalidateTag(ctx context.Context, tag string) error
}

// Render path kinds understood by RenderCache implementations.
const (
	PathKindPage   = "page"
	PathKindLayout = "layout"
)
