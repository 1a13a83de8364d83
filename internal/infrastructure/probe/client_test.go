package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewUnstartedServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	server.Start()
	t.Cleanup(server.Close)
	return server
}

func TestHTTPProber_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantErr    bool
	}{
		{
			name: "head ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
				w.WriteHeader(http.StatusOK)
			},
		},
		{
			name: "falls back to get when head not allowed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodHead {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				_, _ = w.Write([]byte("image"))
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantErr:    true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := newTestServer(t, tt.handler)

			err := NewHTTPProber(5*time.Second).Probe(context.Background(), server.URL+"/a.png")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var probeErr *ProbeError
			require.True(t, errors.As(err, &probeErr))
			assert.Equal(t, tt.wantStatus, probeErr.StatusCode)
		})
	}
}

func TestHTTPProber_Timeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	})
	defer close(release)

	start := time.Now()
	err := NewHTTPProber(100*time.Millisecond).Probe(context.Background(), server.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var probeErr *ProbeError
	require.True(t, errors.As(err, &probeErr))
	assert.Zero(t, probeErr.StatusCode)
}

func TestHTTPProber_TransportError(t *testing.T) {
	t.Parallel()
	err := NewHTTPProber(time.Second).Probe(context.Background(), "http://127.0.0.1:1/a.png")
	assert.Error(t, err)
}

func TestReferenceProber(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "media"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "media", "a.png"), []byte("x"), 0o644))

	store, err := storage.NewFilesystemStore(root, "http://cdn.test/files", logging.NewNopLogger())
	require.NoError(t, err)

	var external atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		external.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	prober := NewReferenceProber(store, NewHTTPProber(time.Second))
	ctx := context.Background()

	assert.NoError(t, prober.Probe(ctx, "http://cdn.test/files/media/a.png"))

	err = prober.Probe(ctx, "http://cdn.test/files/media/missing.png")
	var probeErr *ProbeError
	require.True(t, errors.As(err, &probeErr))
	assert.Equal(t, http.StatusNotFound, probeErr.StatusCode)

	assert.NoError(t, prober.Probe(ctx, server.URL+"/remote.png"))
	assert.EqualValues(t, 1, external.Load())
}
