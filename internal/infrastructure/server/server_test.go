package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/config"
)

const seedLayout = `
id: morning
name: Morning
widgets:
  - id: prayer
    definitionId: Salah
    gridSize: {width: 2, height: 2}
`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "morning.yaml"), []byte(seedLayout), 0o644))

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Storage.SeedDir = dir
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(body, &out))
	return out
}

func TestServerServesCatalogAndSeededLayouts(t *testing.T) {
	_, ts := newTestServer(t)

	root := getJSON(t, ts.URL+"/")
	assert.Equal(t, "online", root["status"])

	catalog := getJSON(t, ts.URL+"/widgets")
	assert.Len(t, catalog["widgets"], 2)

	list := getJSON(t, ts.URL+"/dashboards")
	assert.Equal(t, float64(1), list["count"])

	layout := getJSON(t, ts.URL+"/dashboards/morning")
	assert.Equal(t, "Morning", layout["name"])
}

func TestAdminRoutesDisabledWithoutHash(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/dashboards/morning", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMetricsEndpointIsCompressed(t *testing.T) {
	_, ts := newTestServer(t)

	getJSON(t, ts.URL+"/health")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	require.NoError(t, err)
	// Setting the header disables the transport's transparent decompression
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestTraceHeadersAreReturned(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestErrorBodyCarriesTraceID(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/dashboards/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(body, &out))

	assert.NotEmpty(t, out["error"])
	assert.Equal(t, resp.Header.Get("X-Trace-ID"), out["traceId"])
}
