package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"wine-service/internal/ai"
	"wine-service/internal/imagestore"
	"wine-service/pkg/config"
	"wine-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// Metrics registration is global and must happen exactly once.
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "wine_test"}})
	os.Exit(m.Run())
}

// newAnalyzeHandler wires a real analyzer over a temp image store with the
// given options written to disk.
func newAnalyzeHandler(t *testing.T, opts config.Options) *AnalyzeHandler {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{OptionsPath: filepath.Join(dir, "options.json")}
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.OptionsPath, data, 0o644))

	images, err := imagestore.New(filepath.Join(dir, "uploads"), nil)
	require.NoError(t, err)

	return NewAnalyzeHandler(ai.NewAnalyzer(cfg, images, zap.NewNop()), cfg)
}

func analyzeRequest(t *testing.T, withImage bool) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if withImage {
		part, err := w.CreateFormFile("image", "label.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-wine", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestAnalyzeWithoutCredentialsReturnsBadRequest(t *testing.T) {
	h := newAnalyzeHandler(t, config.DefaultOptions()) // provider "none"

	req, rec := analyzeRequest(t, true)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Analyze(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, false, got["ok"])
	assert.Equal(t, "no_api_key", got["error"])
	assert.NotContains(t, got, "image_filename")
}

func TestAnalyzeWithoutImageReturnsBadRequest(t *testing.T) {
	opts := config.DefaultOptions()
	opts.AIProvider = "ollama" // host default makes it configured
	h := newAnalyzeHandler(t, opts)

	req, rec := analyzeRequest(t, false)
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h.Analyze(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, false, got["ok"])
	assert.Equal(t, "no_image", got["error"])
}
