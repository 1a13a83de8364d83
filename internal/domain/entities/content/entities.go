// Package content defines the application's core content-related domain entities.
package content

// ContentItem is one editable value on a page, unique on (Page, Section, ContentKey).
type ContentItem struct {
	ID           string `json:"id"`
	Page         string `json:"page"`
	Section      string `json:"section"`
	ContentKey   string `json:"contentKey"`
	ContentValue string `json:"contentValue"`
	UpdatedAt    string `json:"updatedAt"`
}

// MediaFile is one object store entry as known to the content store.
// Path is the object key (folder/filename); URL is what pages reference.
type MediaFile struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType"`
	AltText    string `json:"altText"`
	UploadedAt string `json:"uploadedAt"`
}

// ImageReference is a non-null image-like field on a structured record.
type ImageReference struct {
	Table    string `json:"table"`
	RecordID string `json:"recordId"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Label    string `json:"label"`
}
