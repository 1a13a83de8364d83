// Package probe checks whether stored image references still resolve.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
)

const (
	// DefaultTimeout bounds one probe when no timeout is configured
	DefaultTimeout = 10 * time.Second

	// UserAgent is sent with every probe request
	UserAgent = "sitekeep-integrity-scanner/1.0"
)

// Prober resolves one reference. A nil error means the referenced object exists.
type Prober interface {
	Probe(ctx context.Context, rawURL string) error
}

// HTTPProber probes URLs with HEAD, retrying with GET when HEAD is not allowed.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber creates a prober whose every request is bounded by timeout.
// If timeout is 0, uses DefaultTimeout
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProber{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, rawURL string) error {
	status, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		if status, err = p.do(ctx, http.MethodGet, rawURL); err != nil {
			return err
		}
	}
	if status < 200 || status > 299 {
		return NewProbeError(status, rawURL, http.StatusText(status))
	}
	return nil
}

func (p *HTTPProber) do(ctx context.Context, method, rawURL string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, NewProbeError(0, rawURL, fmt.Sprintf("invalid request: %v", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, NewProbeError(0, rawURL, err.Error())
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()
	return resp.StatusCode, nil
}

// ReferenceProber checks URLs served from the object store against the store itself
// and falls back to HTTP for everything else.
type ReferenceProber struct {
	store repositories.ObjectStore
	http  Prober
}

func NewReferenceProber(store repositories.ObjectStore, httpProber Prober) *ReferenceProber {
	return &ReferenceProber{
		store: store,
		http:  httpProber,
	}
}

func (p *ReferenceProber) Probe(ctx context.Context, rawURL string) error {
	if key, ok := p.store.KeyFromURL(rawURL); ok {
		if _, err := p.store.Stat(ctx, key); err != nil {
			if errors.Is(err, repositories.ErrObjectNotFound) {
				return NewProbeError(http.StatusNotFound, rawURL, "object "+key+" not found")
			}
			return NewProbeError(0, rawURL, err.Error())
		}
		return nil
	}
	return p.http.Probe(ctx, rawURL)
}
