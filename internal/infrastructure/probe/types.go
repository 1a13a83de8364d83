package probe

import "fmt"

// ProbeError reports a reference that did not resolve to a readable object.
// StatusCode is zero for transport failures.
type ProbeError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *ProbeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("probe failed for URL %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewProbeError creates a new probe error
func NewProbeError(statusCode int, url, message string) error {
	return &ProbeError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}
