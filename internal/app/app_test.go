package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benfordlens/internal/config"
	"benfordlens/internal/infrastructure"
)

const testCSV = `amount,count
123.45,11
234.56,23
345.67,31
456.78,42
567.89,55
678.90,61
789.01,72
890.12,85
901.23,91
112.34,12
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	root := t.TempDir()
	paths := &config.Paths{
		ExecutableDir:   root,
		DataDir:         filepath.Join(root, "data"),
		WorkbooksDir:    filepath.Join(root, "data", "workbooks"),
		ReportsDir:      filepath.Join(root, "data", "reports"),
		LogsDir:         filepath.Join(root, "logs"),
		CredentialsFile: filepath.Join(root, "credentials.enc"),
	}
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

// newTestApplication wires an Application by hand so tests control the
// configuration and storage location.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	logger := testLogger()
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Reports.CSVExports = false
	cfg.Reports.Formats = []string{"markdown"}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	require.NoError(t, err)

	app := &Application{
		Config:        cfg,
		Paths:         testPaths(t),
		Logger:        logger,
		OTelProviders: otelProviders,
	}
	require.NoError(t, app.initializeServices())
	app.setupRouter()
	app.createServer()

	t.Cleanup(func() {
		app.AnalysisService.Close()
		app.WebSocketHub.Stop()
	})

	return app
}

func TestInitializeServices(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.AnalysisService)
	assert.NotNil(t, app.HealthService)
	require.NotNil(t, app.Services)
	assert.Same(t, app.AnalysisService, app.Services.Analysis)
	assert.Same(t, app.HealthService, app.Services.Health)
	assert.Same(t, app.WebSocketHub, app.Services.WebSocket)

	// No credentials file in the temp directory, so Sheets support
	// stays disabled.
	assert.Nil(t, app.Credentials)
}

func TestRouterHealthEndpoints(t *testing.T) {
	app := newTestApplication(t)

	cases := []struct {
		path string
		want int
	}{
		{"/api/health", http.StatusOK},
		{"/api/health/ready", http.StatusOK},
		{"/api/health/live", http.StatusOK},
		{"/api/health/details", http.StatusOK},
		{"/api/version", http.StatusOK},
		{"/api/stats", http.StatusOK},
		{"/api/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "GET %s", tc.path)
	}
}

func TestRouterUnknownAPIRouteProblemBody(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Not Found", problem["title"])
	assert.Equal(t, "/api/nope", problem["instance"])
}

func TestRouterMethodNotAllowed(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouterPrometheusEndpoint(t *testing.T) {
	app := newTestApplication(t)
	require.NotNil(t, app.OTelProviders.PrometheusHTTP)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterListAnalysesEmpty(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["count"])
}

// TestAnalysisRoundTrip submits a workbook through the full router and
// polls the job until the report can be downloaded.
func TestAnalysisRoundTrip(t *testing.T) {
	app := newTestApplication(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "ledger.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.JobID)

	var state string
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, accepted.PollURL, nil)
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			return false
		}
		var status struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		state = status.State
		return state == "completed" || state == "failed"
	}, 15*time.Second, 20*time.Millisecond)
	require.Equal(t, "completed", state)

	req = httptest.NewRequest(http.MethodGet, accepted.PollURL+"/report?format=markdown", nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, rec.Body.String(), "Benford")
}

func TestCreateServer(t *testing.T) {
	app := newTestApplication(t)

	require.NotNil(t, app.Server)
	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Equal(t, app.Config.Server.MaxHeaderBytes, app.Server.MaxHeaderBytes)
}

func TestGetCORSConfig(t *testing.T) {
	app := newTestApplication(t)
	app.Config.Security.AllowedOrigins = []string{"http://example.com"}

	cors := app.getCORSConfig()

	assert.Equal(t, []string{"http://example.com"}, cors.AllowedOrigins)
	assert.Contains(t, cors.AllowedMethods, "POST")
	assert.Contains(t, cors.AllowedHeaders, "X-Request-ID")
	assert.True(t, cors.AllowCredentials)
}

func TestPerformStartupHealthCheck(t *testing.T) {
	app := newTestApplication(t)

	require.NoError(t, app.performStartupHealthCheck(context.Background()))
}

func TestPerformStartupHealthCheckMissingDir(t *testing.T) {
	app := newTestApplication(t)
	app.Paths.ReportsDir = filepath.Join(app.Paths.ExecutableDir, "does-not-exist")

	err := app.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports directory not writable")
}

func TestStopWithoutStart(t *testing.T) {
	app := newTestApplication(t)

	// Shutdown on a server that never listened returns immediately.
	require.NoError(t, app.Stop(context.Background()))
}

func TestWebSocketRouteRejectsPlainRequest(t *testing.T) {
	app := newTestApplication(t)

	// A plain GET without upgrade headers must not reach the hub.
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, app.WebSocketHub.ClientCount())
}

func TestUploadTooLargeThroughRouter(t *testing.T) {
	app := newTestApplication(t)
	app.Config.Server.MaxUploadBytes = 8

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "ledger.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// The partial upload must not linger in the workbooks directory.
	entries, err := os.ReadDir(app.Paths.WorkbooksDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
