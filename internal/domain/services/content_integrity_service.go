package services

import (
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Report sections of an integrity scan.
const (
	SectionMediaFiles = "mediaFiles"
	SectionContent    = "contentReferences"
	SectionProducts   = "productImages"
	SectionCategories = "categoryImages"
	SectionProjects   = "projectImages"
)

// ErrUnknownTable is returned for table names outside the record table list.
var ErrUnknownTable = errors.New("unknown record table")

// RecordTable describes a structured table carrying one image-like field.
type RecordTable struct {
	Name        string
	ImageField  string
	LabelField  string
	ContentType string
	Section     string
}

var recordTables = []RecordTable{
	{Name: "products", ImageField: "image_url", LabelField: "name", ContentType: ContentTypeProducts, Section: SectionProducts},
	{Name: "categories", ImageField: "image_url", LabelField: "name", ContentType: ContentTypeCategories, Section: SectionCategories},
	{Name: "project_categories", ImageField: "icon_url", LabelField: "name", ContentType: ContentTypeProjectCategories, Section: SectionCategories},
	{Name: "projects", ImageField: "image_url", LabelField: "title", ContentType: ContentTypeProjects, Section: SectionProjects},
}

// RecordTables returns the scanned structured tables in scan order.
func RecordTables() []RecordTable {
	tables := make([]RecordTable, len(recordTables))
	copy(tables, recordTables)
	return tables
}

// LookupRecordTable finds a table descriptor by name.
func LookupRecordTable(name string) (RecordTable, error) {
	for _, t := range recordTables {
		if t.Name == name {
			return t, nil
		}
	}
	return RecordTable{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// ContentIntegrityService decides which stored values are image references.
type ContentIntegrityService struct{}

func NewContentIntegrityService() *ContentIntegrityService {
	return &ContentIntegrityService{}
}

var imageKeys = map[string]bool{
	"image_url":        true,
	"image_id":         true,
	"logo":             true,
	"background_image": true,
}

// IsImageReferenceKey reports whether a content key is expected to hold an image URL.
func (s *ContentIntegrityService) IsImageReferenceKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if imageKeys[key] {
		return true
	}
	return strings.HasSuffix(key, "_image") || strings.HasSuffix(key, "_image_url")
}

// IsProbeableURL reports whether value is an absolute http(s) URL.
func (s *ContentIntegrityService) IsProbeableURL(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsDecodableImage reports whether a MIME type (or, failing that, the file extension)
// names a raster format the scanner can decode.
func (s *ContentIntegrityService) IsDecodableImage(mimeType, filename string) bool {
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(path.Ext(filename)))
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	switch mimeType {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	}
	return false
}
