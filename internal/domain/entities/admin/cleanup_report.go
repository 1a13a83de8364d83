// Package admin defines domain entities for administrative operations
package admin

// BrokenMediaFile is a media row whose object could not be validated.
type BrokenMediaFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// BrokenContentReference is a content item whose image value could not be resolved.
type BrokenContentReference struct {
	ID         string `json:"id"`
	Page       string `json:"page"`
	Section    string `json:"section"`
	ContentKey string `json:"contentKey"`
	Value      string `json:"value"`
	Reason     string `json:"reason"`
}

// BrokenRecordImage is a structured record whose image field could not be resolved.
type BrokenRecordImage struct {
	Table    string `json:"table"`
	ID       string `json:"id"`
	Field    string `json:"field"`
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl"`
	Reason   string `json:"reason"`
}

// CleanupSummary carries the headline counters of a scan.
type CleanupSummary struct {
	TotalBrokenItems  int `json:"totalBrokenItems"`
	ValidatedFiles    int `json:"validatedFiles"`
	CleanedReferences int `json:"cleanedReferences"`
}

// CleanupReport is the request-scoped result of one scan pass. It is never persisted;
// repairs read their targets from the report produced by the same pass.
type CleanupReport struct {
	ScanID                  string                   `json:"scanId"`
	DryRun                  bool                     `json:"dryRun"`
	BrokenMediaFiles        []BrokenMediaFile        `json:"brokenMediaFiles"`
	BrokenContentReferences []BrokenContentReference `json:"brokenContentReferences"`
	BrokenProductImages     []BrokenRecordImage      `json:"brokenProductImages"`
	BrokenCategoryImages    []BrokenRecordImage      `json:"brokenCategoryImages"`
	BrokenProjectImages     []BrokenRecordImage      `json:"brokenProjectImages"`
	ValidatedFiles          int                      `json:"validatedFiles"`
	CleanedReferences       int                      `json:"cleanedReferences"`
	SectionErrors           map[string]string        `json:"sectionErrors,omitempty"`
	RepairErrors            []string                 `json:"repairErrors,omitempty"`
	Repaired                bool                     `json:"repaired"`
	Summary                 CleanupSummary           `json:"summary"`
}

// NewCleanupReport returns an empty report with non-nil lists so they encode as [].
func NewCleanupReport(scanID string, dryRun bool) *CleanupReport {
	return &CleanupReport{
		ScanID:                  scanID,
		DryRun:                  dryRun,
		BrokenMediaFiles:        []BrokenMediaFile{},
		BrokenContentReferences: []BrokenContentReference{},
		BrokenProductImages:     []BrokenRecordImage{},
		BrokenCategoryImages:    []BrokenRecordImage{},
		BrokenProjectImages:     []BrokenRecordImage{},
		SectionErrors:           make(map[string]string),
	}
}

// TotalBroken sums every broken list.
func (r *CleanupReport) TotalBroken() int {
	return len(r.BrokenMediaFiles) + len(r.BrokenContentReferences) +
		len(r.BrokenProductImages) + len(r.BrokenCategoryImages) + len(r.BrokenProjectImages)
}

// Failed reports whether any enumeration section could not complete.
func (r *CleanupReport) Failed() bool {
	return len(r.SectionErrors) > 0
}

// Finalize recomputes the summary from the lists and counters.
func (r *CleanupReport) Finalize() {
	r.Summary = CleanupSummary{
		TotalBrokenItems:  r.TotalBroken(),
		ValidatedFiles:    r.ValidatedFiles,
		CleanedReferences: r.CleanedReferences,
	}
}
