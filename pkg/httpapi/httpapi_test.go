package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/progress"
	"github.com/localcomicreader/readerd/pkg/reader"
)

func newTestServer(t *testing.T) (*reader.Core, http.Handler) {
	t.Helper()
	store, err := progress.NewAt(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, err)
	core, err := reader.New(t.TempDir(), coretypes.DefaultCacheBudget(), store)
	require.NoError(t, err)
	return core, New(core)
}

func TestOpenPathAndListPages(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/open-path", strings.NewReader(`{"path":"demo-bundle"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var opened struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	require.NotEmpty(t, opened.Source)

	req = httptest.NewRequest(http.MethodGet, "/api/sources/"+opened.Source+"/pages", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var pages []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
	assert.Len(t, pages, 5)
}

func TestGetPageURL_UnknownSourceReturns404(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/pages/missing/0/url", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/open-path", strings.NewReader(`{"path":"demo-bundle"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		ActiveSources int `json:"active_sources"`
		CachedPages   int `json:"cached_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.ActiveSources)
	assert.Equal(t, 5, stats.CachedPages)
}

func TestImgRoute_MountedAlongsideAPI(t *testing.T) {
	_, e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/img/does-not-exist", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
