package handler

import (
	"net/http"

	"wine-service/internal/store"
	"wine-service/pkg/config"
	"wine-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatsHandler serves the aggregate views over the collection.
type StatsHandler struct {
	store *store.WineStore
	cfg   *config.Config
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(s *store.WineStore, cfg *config.Config) *StatsHandler {
	return &StatsHandler{store: s, cfg: cfg}
}

// Stats handles the full statistics page data
func (h *StatsHandler) Stats(c echo.Context) error {
	log := logger.FromContext(c)

	stats, err := h.store.Stats()
	if err != nil {
		log.Error("Failed to compute statistics", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute statistics"})
	}

	opts := h.cfg.CurrentOptions()
	return c.JSON(http.StatusOK, echo.Map{
		"stats":    stats,
		"currency": opts.Currency,
		"language": opts.Language,
	})
}

// Summary handles the compact JSON summary for external consumers, e.g. a
// home-automation dashboard sensor
func (h *StatsHandler) Summary(c echo.Context) error {
	log := logger.FromContext(c)

	summary, err := h.store.Summary()
	if err != nil {
		log.Error("Failed to compute summary", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute summary"})
	}

	return c.JSON(http.StatusOK, summary)
}
