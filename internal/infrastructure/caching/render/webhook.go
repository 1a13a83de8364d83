// Package render provides RenderCache backends that reach the public renderer.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
)

// SecretHeader carries the shared revalidation secret.
const SecretHeader = "X-Revalidate-Secret"

var _ repositories.RenderCache = (*WebhookCache)(nil)

// WebhookCache asks the renderer to revalidate through its revalidate endpoint.
type WebhookCache struct {
	endpoint string
	secret   string
	client   *http.Client
}

type revalidateRequest struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	Kind string `json:"kind,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

// NewWebhookCache creates a webhook backend. Each call is bounded by timeout.
func NewWebhookCache(endpoint, secret string, timeout time.Duration) *WebhookCache {
	return &WebhookCache{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: timeout},
	}
}

func (w *WebhookCache) InvalidatePath(ctx context.Context, path string, kind string) error {
	return w.post(ctx, revalidateRequest{Type: "path", Path: path, Kind: kind})
}

func (w *WebhookCache) InvalidateTag(ctx context.Context, tag string) error {
	return w.post(ctx, revalidateRequest{Type: "tag", Tag: tag})
}

func (w *WebhookCache) post(ctx context.Context, payload revalidateRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal revalidate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(SecretHeader, w.secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("revalidate request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("renderer answered HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
