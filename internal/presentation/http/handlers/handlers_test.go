package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/sitekeep/internal/application/services"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/admin"
	"github.com/AtRiskMedia/sitekeep/internal/domain/entities/content"
	"github.com/AtRiskMedia/sitekeep/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/sitekeep/internal/domain/services"
	"github.com/AtRiskMedia/sitekeep/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/sitekeep/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScanner struct {
	mu     sync.Mutex
	calls  []bool
	failed bool
}

func (f *fakeScanner) Scan(_ context.Context, dryRun bool) *admin.CleanupReport {
	f.mu.Lock()
	f.calls = append(f.calls, dryRun)
	f.mu.Unlock()

	report := admin.NewCleanupReport("scan-1", dryRun)
	report.BrokenMediaFiles = append(report.BrokenMediaFiles, admin.BrokenMediaFile{ID: "m1", Path: "images/a.png", Error: "object not found"})
	if f.failed {
		report.SectionErrors[domainservices.SectionContent] = "database is locked"
	}
	report.Finalize()
	return report
}

type fakeReorganizer struct{}

func (fakeReorganizer) Reorganize(context.Context) *admin.ReorganizationReport {
	report := admin.NewReorganizationReport()
	report.FilesMoved = 2
	report.FilesUpdated = 2
	report.NewFolderStructure = []string{"media", "products"}
	return report
}

type fakeFreshness struct{}

func (fakeFreshness) ComputeFreshness(_ context.Context, page string) (*services.Freshness, error) {
	if strings.TrimSpace(page) == "" {
		return nil, services.ErrInvalidPage
	}
	return &services.Freshness{Page: page, LastUpdated: 1700000000000, ContentCount: 3}, nil
}

type fakeRevalidator struct{}

func (fakeRevalidator) Trigger(_ context.Context, contentType, specificPage string) (*admin.RevalidationResult, error) {
	if contentType != domainservices.ContentTypeContent {
		return nil, fmt.Errorf("%w: %q", domainservices.ErrUnknownContentType, contentType)
	}
	result := admin.NewRevalidationResult(contentType)
	result.Paths = append(result.Paths, "/", specificPage)
	return result, nil
}

type fakeAuth struct{}

func (fakeAuth) AuthenticateAdmin(password string) *services.AuthResult {
	if password != "correct horse" {
		return &services.AuthResult{Success: false, Error: "Invalid credentials"}
	}
	return &services.AuthResult{Success: true, Token: "good-token", Role: "admin", ExpiresAt: time.Now().Add(time.Hour)}
}

func (fakeAuth) ValidateAdminToken(token string) bool {
	return token == "good-token"
}

type fakeMedia struct{}

func (fakeMedia) List(context.Context) ([]*content.MediaFile, error) {
	return []*content.MediaFile{{ID: "m1", Path: "media/a.png"}}, nil
}

func (fakeMedia) Register(_ context.Context, file *content.MediaFile) (*content.MediaFile, *admin.RevalidationResult, error) {
	if file.Path == "missing.png" {
		return nil, nil, fmt.Errorf("cannot register %s: %w", file.Path, repositories.ErrObjectNotFound)
	}
	file.ID = "new-id"
	return file, admin.NewRevalidationResult(domainservices.ContentTypeMedia), nil
}

func (fakeMedia) Delete(_ context.Context, id string, _ bool) (*admin.RevalidationResult, error) {
	if id != "m1" {
		return nil, fmt.Errorf("media file %s: %w", id, repositories.ErrNotFound)
	}
	return admin.NewRevalidationResult(domainservices.ContentTypeMedia), nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fakeSummary struct{}

func (fakeSummary) Summary() map[string]any { return map[string]any{"pages": 0} }

func newRouter() (*gin.Engine, *fakeScanner) {
	logger := logging.NewNopLogger()
	scanner := &fakeScanner{}

	integrity := NewIntegrityHandlers(scanner, fakeReorganizer{}, logger)
	syncHandlers := NewSyncHandlers(fakeFreshness{}, logger)
	revalidate := NewRevalidateHandlers(fakeRevalidator{}, logger)
	auth := NewAuthHandlers(fakeAuth{}, logger)
	media := NewMediaHandlers(fakeMedia{}, logger)

	r := gin.New()
	r.POST("/api/v1/sync/content", syncHandlers.PostSyncContent)
	r.POST("/api/v1/auth/login", auth.PostLogin)

	adminGroup := r.Group("/api/v1/admin")
	adminGroup.Use(auth.AuthMiddleware())
	adminGroup.POST("/cleanup-images", integrity.PostCleanupImages)
	adminGroup.POST("/reorganize-folders", integrity.PostReorganizeFolders)
	adminGroup.POST("/revalidate", revalidate.PostRevalidate)
	adminGroup.GET("/media", media.GetMediaFiles)
	adminGroup.POST("/media", media.PostMediaFile)
	adminGroup.DELETE("/media/:id", media.DeleteMediaFile)

	return r, scanner
}

func do(t *testing.T, r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var authorized = map[string]string{"Authorization": "Bearer good-token"}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	t.Parallel()
	r, scanner := newRouter()

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{name: "no credentials", want: http.StatusUnauthorized},
		{name: "bad bearer", headers: map[string]string{"Authorization": "Bearer nope"}, want: http.StatusUnauthorized},
		{name: "good bearer", headers: authorized, want: http.StatusOK},
		{name: "good cookie", headers: map[string]string{"Cookie": middleware.AdminCookieName + "=good-token"}, want: http.StatusOK},
	}
	for _, tt := range tests {
		w := do(t, r, http.MethodPost, "/api/v1/admin/reorganize-folders", "", tt.headers)
		assert.Equal(t, tt.want, w.Code, tt.name)
	}
	assert.Empty(t, scanner.calls)
}

func TestPostCleanupImages(t *testing.T) {
	t.Parallel()

	t.Run("defaults to a dry run", func(t *testing.T) {
		t.Parallel()
		r, scanner := newRouter()

		w := do(t, r, http.MethodPost, "/api/v1/admin/cleanup-images", "", authorized)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []bool{true}, scanner.calls)

		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.NotContains(t, body, "results")
		results := body["data"].(map[string]any)
		assert.Equal(t, true, results["dryRun"])
		assert.Len(t, results["brokenMediaFiles"], 1)
	})

	t.Run("explicit repair", func(t *testing.T) {
		t.Parallel()
		r, scanner := newRouter()

		w := do(t, r, http.MethodPost, "/api/v1/admin/cleanup-images", `{"dryRun":false}`, authorized)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []bool{false}, scanner.calls)
	})

	t.Run("malformed dryRun is rejected before scanning", func(t *testing.T) {
		t.Parallel()
		r, scanner := newRouter()

		w := do(t, r, http.MethodPost, "/api/v1/admin/cleanup-images", `{"dryRun":"yes"}`, authorized)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, scanner.calls)
	})

	t.Run("failed section returns the partial report", func(t *testing.T) {
		t.Parallel()
		r, scanner := newRouter()
		scanner.failed = true

		w := do(t, r, http.MethodPost, "/api/v1/admin/cleanup-images", `{"dryRun":true}`, authorized)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		results := body["data"].(map[string]any)
		assert.Len(t, results["brokenMediaFiles"], 1)
		assert.Contains(t, results["sectionErrors"], domainservices.SectionContent)
	})
}

func TestPostReorganizeFolders(t *testing.T) {
	t.Parallel()
	r, _ := newRouter()

	w := do(t, r, http.MethodPost, "/api/v1/admin/reorganize-folders", "", authorized)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	results := body["results"].(map[string]any)
	assert.EqualValues(t, 2, results["filesMoved"])
	assert.Equal(t, []any{"media", "products"}, results["newFolderStructure"])
}

func TestPostSyncContent(t *testing.T) {
	t.Parallel()
	r, _ := newRouter()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing body", body: "", want: http.StatusBadRequest},
		{name: "empty page", body: `{"page":""}`, want: http.StatusBadRequest},
		{name: "blank page", body: `{"page":"  "}`, want: http.StatusBadRequest},
		{name: "known page", body: `{"page":"home"}`, want: http.StatusOK},
	}
	for _, tt := range tests {
		w := do(t, r, http.MethodPost, "/api/v1/sync/content", tt.body, nil)
		assert.Equal(t, tt.want, w.Code, tt.name)
	}

	w := do(t, r, http.MethodPost, "/api/v1/sync/content", `{"page":"home"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, `"686f6d65-1700000000000-3"`, etag)

	body := decode(t, w)
	assert.Equal(t, "home", body["page"])
	assert.EqualValues(t, 1700000000000, body["lastUpdated"])
	assert.EqualValues(t, 3, body["contentCount"])
	assert.NotEmpty(t, body["timestamp"])

	w = do(t, r, http.MethodPost, "/api/v1/sync/content", `{"page":"home"}`, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/v1/sync/content", `{"page":"home"}`, map[string]string{"If-None-Match": `"other", W/` + etag})
	assert.Equal(t, http.StatusNotModified, w.Code)

	quoted := do(t, r, http.MethodPost, "/api/v1/sync/content", `{"page":"say \"hi\""}`, nil)
	require.Equal(t, http.StatusOK, quoted.Code)
	quotedTag := quoted.Header().Get("ETag")
	assert.NotContains(t, quotedTag[1:len(quotedTag)-1], `"`)

	w = do(t, r, http.MethodPost, "/api/v1/sync/content", `{"page":"say \"hi\""}`, map[string]string{"If-None-Match": quotedTag})
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestPostRevalidate(t *testing.T) {
	t.Parallel()
	r, _ := newRouter()

	w := do(t, r, http.MethodPost, "/api/v1/admin/revalidate", `{"contentType":"widgets"}`, authorized)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/admin/revalidate", `{}`, authorized)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/admin/revalidate", `{"contentType":"content","page":"/about"}`, authorized)
	require.Equal(t, http.StatusOK, w.Code)
	var result admin.RevalidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"/", "/about"}, result.Paths)
}

func TestPostLogin(t *testing.T) {
	t.Parallel()
	r, _ := newRouter()

	w := do(t, r, http.MethodPost, "/api/v1/auth/login", `{"password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = do(t, r, http.MethodPost, "/api/v1/auth/login", `{"password":"correct horse"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.AdminCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, "good-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)
}

func TestMediaHandlers(t *testing.T) {
	t.Parallel()
	r, _ := newRouter()

	w := do(t, r, http.MethodGet, "/api/v1/admin/media", "", authorized)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(t, r, http.MethodPost, "/api/v1/admin/media", `{"path":"media/b.png"}`, authorized)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/admin/media", `{"path":"missing.png"}`, authorized)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/admin/media/unknown", "", authorized)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/admin/media/m1?deleteObject=maybe", "", authorized)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/api/v1/admin/media/m1?deleteObject=true", "", authorized)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetHealth(t *testing.T) {
	t.Parallel()
	logger := logging.NewNopLogger()

	tests := []struct {
		name   string
		ping   error
		want   int
		status string
	}{
		{name: "reachable", want: http.StatusOK, status: "ok"},
		{name: "unreachable", ping: errors.New("connection refused"), want: http.StatusServiceUnavailable, status: "degraded"},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/health", NewHealthHandlers(fakePinger{err: tt.ping}, fakeSummary{}, logger).GetHealth)

		w := do(t, r, http.MethodGet, "/health", "", nil)
		assert.Equal(t, tt.want, w.Code, tt.name)
		assert.Equal(t, tt.status, decode(t, w)["status"], tt.name)
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", domainservices.ErrUnknownContentType), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domainservices.ErrUnknownTable), http.StatusBadRequest},
		{services.ErrInvalidPage, http.StatusBadRequest},
		{services.ErrInvalidContentItem, http.StatusBadRequest},
		{fmt.Errorf("x: %w", repositories.ErrNotFound), http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}
