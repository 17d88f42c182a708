package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invdash/internal/config"
	apierrors "invdash/internal/errors"
	"invdash/internal/selection"
	"invdash/internal/services"
	"invdash/internal/shared/testutil"
)

func newHealthRouter(t *testing.T, dataDir string) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService("1.2.3", "2026-01-01", config.PathsConfig{DataDir: dataDir}, nil, logger)

	health := NewHealthHandler(svc, logger)
	r := chi.NewRouter()
	r.Get("/api/health", health.HealthCheck)
	r.Get("/api/health/ready", health.ReadinessCheck)
	r.Get("/api/health/live", health.LivenessCheck)
	r.Get("/api/version", health.Version)
	r.Mount("/api/metrics", NewMetricsHandler(svc, logger, apierrors.NewErrorHandler(logger, false)).Routes())
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoints(t *testing.T) {
	router := newHealthRouter(t, t.TempDir())

	tests := []struct {
		path   string
		status string
	}{
		{"/api/health", "ok"},
		{"/api/health/ready", "ready"},
		{"/api/health/live", "alive"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(router, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, "1.2.3", body["version"])
		})
	}
}

func TestReadinessFailsWithoutDataDir(t *testing.T) {
	router := newHealthRouter(t, filepath.Join(t.TempDir(), "missing"))

	rec := serve(router, "/api/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decode(t, rec)["status"])
}

func TestVersionEndpoint(t *testing.T) {
	rec := serve(newHealthRouter(t, t.TempDir()), "/api/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, config.AppName, body["name"])
	assert.Equal(t, "1.2.3", body["version"])
}

func TestMetricsStats(t *testing.T) {
	dir := t.TempDir()
	key := selection.SelectionKey{
		Agent:       selection.AgentDRL,
		OrderType:   selection.OrderUpToLevelEq,
		Disruption:  selection.DisruptionNone,
		Sensitivity: selection.Sensitivity04,
	}
	require.NoError(t, os.WriteFile(selection.PathFor(dir, key), []byte("1234"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.xlsx"), []byte("56"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	rec := serve(newHealthRouter(t, dir), "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["workbooks"])
	assert.Equal(t, float64(1), body["unrecognized_files"])
	assert.Equal(t, float64(6), body["total_size_bytes"])
}

func TestMetricsStatsMissingDir(t *testing.T) {
	rec := serve(newHealthRouter(t, filepath.Join(t.TempDir(), "missing")), "/api/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblem, rec.Header().Get("Content-Type"))
}
