package handler

import (
	"net/http"
	"time"

	"wine-service/internal/ai"
	"wine-service/pkg/config"
	"wine-service/pkg/logger"
	"wine-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AnalyzeHandler exposes the AI label analysis endpoint.
type AnalyzeHandler struct {
	analyzer *ai.Analyzer
	cfg      *config.Config
}

// NewAnalyzeHandler creates an AnalyzeHandler.
func NewAnalyzeHandler(analyzer *ai.Analyzer, cfg *config.Config) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, cfg: cfg}
}

// Analyze handles a label photo upload and returns extracted wine fields.
// A provider failure never fails the app; callers get a structured error
// and keep the saved image filename for a retry.
func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	log := logger.FromContext(c)
	provider := h.cfg.CurrentOptions().Provider()

	// A missing file is handled inside the analyzer as its own error code.
	file, _ := c.FormFile("image")

	start := time.Now()
	result, aiErr := h.analyzer.Analyze(c.Request().Context(), file)
	prometheus.AIAnalysisDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if aiErr != nil {
		prometheus.RecordAIAnalysis(provider, aiErr.Code)
		log.Warn("Label analysis failed",
			zap.String("provider", provider),
			zap.String("code", aiErr.Code))

		body := echo.Map{"ok": false, "error": aiErr.Code}
		if aiErr.Message != "" {
			body["message"] = aiErr.Message
		}
		if aiErr.ImageFilename != "" {
			body["image_filename"] = aiErr.ImageFilename
		}
		return c.JSON(analyzeStatus(aiErr.Code), body)
	}

	prometheus.RecordAIAnalysis(provider, "ok")
	log.Info("Label analysis succeeded",
		zap.String("provider", provider),
		zap.String("image", result.ImageFilename))
	return c.JSON(http.StatusOK, echo.Map{
		"ok":             true,
		"fields":         result.Fields,
		"image_filename": result.ImageFilename,
	})
}

func analyzeStatus(code string) int {
	switch code {
	case ai.CodeNoAPIKey, ai.CodeNoImage, ai.CodeInvalidProvider:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
