package admin

// RevalidationResult lists the outcome of one dispatcher fan-out. Paths and Tags hold
// everything that was dispatched; the subsets that failed are repeated in FailedPaths
// and FailedTags with their messages in Errors. Success is false only when the dispatch
// could not start.
type RevalidationResult struct {
	Success     bool     `json:"success"`
	ContentType string   `json:"contentType"`
	Paths       []string `json:"paths"`
	Tags        []string `json:"tags"`
	Layout      bool     `json:"layout"`
	FailedPaths []string `json:"failedPaths"`
	FailedTags  []string `json:"failedTags"`
	Errors      []string `json:"errors"`
}

// NewRevalidationResult returns a result with non-nil lists so they encode as [].
func NewRevalidationResult(contentType string) *RevalidationResult {
	return &RevalidationResult{
		Success:     true,
		ContentType: contentType,
		Paths:       []string{},
		Tags:        []string{},
		FailedPaths: []string{},
		FailedTags:  []string{},
		Errors:      []string{},
	}
}

// Failures counts the individual invalidation calls that failed.
func (r *RevalidationResult) Failures() int {
	return len(r.Errors)
}
