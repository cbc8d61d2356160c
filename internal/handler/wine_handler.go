package handler

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"wine-service/internal/imagestore"
	"wine-service/internal/model"
	"wine-service/internal/store"
	"wine-service/pkg/config"
	"wine-service/pkg/logger"
	"wine-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WineHandler translates web requests into wine store calls. Browser form
// submits get redirects; requests flagged as XMLHttpRequest get a JSON
// envelope with the affected record and fresh quick stats.
type WineHandler struct {
	store  *store.WineStore
	images *imagestore.Store
	cfg    *config.Config
}

// NewWineHandler creates a WineHandler.
func NewWineHandler(s *store.WineStore, images *imagestore.Store, cfg *config.Config) *WineHandler {
	return &WineHandler{store: s, images: images, cfg: cfg}
}

// List handles retrieving the filtered collection for the main page
func (h *WineHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("list_wines")(time.Now())

	q := strings.TrimSpace(c.QueryParam("q"))
	wineType := c.QueryParam("type")
	showEmpty := c.QueryParam("show_empty")
	if showEmpty == "" {
		showEmpty = "1"
	}

	wines, err := h.store.List(store.Filter{
		Query:        q,
		Type:         wineType,
		IncludeEmpty: showEmpty != "0",
	})
	if err != nil {
		log.Error("Failed to list wines", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve wines"})
	}

	stats, err := h.store.QuickStats()
	if err != nil {
		log.Error("Failed to compute stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute stats"})
	}

	// Filter tabs and autocomplete lists only show values actually stored.
	usedTypes, err := h.store.DistinctTypes()
	if err != nil {
		log.Error("Failed to list used types", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve wines"})
	}
	usedLocations, _ := h.store.DistinctLocations()
	usedGrapes, _ := h.store.DistinctGrapes()

	opts := h.cfg.CurrentOptions()

	log.Info("Wines retrieved", zap.Int("count", len(wines)), zap.String("query", q))
	return c.JSON(http.StatusOK, echo.Map{
		"wines":          wines,
		"stats":          stats,
		"wine_types":     model.WineTypes,
		"used_types":     usedTypes,
		"used_locations": usedLocations,
		"used_grapes":    usedGrapes,
		"query":          q,
		"active_type":    wineType,
		"show_empty":     showEmpty,
		"currency":       opts.Currency,
		"language":       opts.Language,
		"ai_enabled":     opts.Provider() != "none" && opts.ProviderConfigured(),
	})
}

// Add handles creating a new wine from a multipart form
func (h *WineHandler) Add(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("create_wine")(time.Now())

	var form model.WineForm
	if err := c.Bind(&form); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&form); err != nil {
		return h.mutationError(c, log, &store.ValidationError{Field: "name", Reason: "must not be empty"}, "create")
	}

	image := h.saveUpload(c, log)
	// An upload-then-analyze flow may have saved the photo already; reuse
	// it instead of forcing a second upload.
	if image == "" {
		if aiImage := strings.TrimSpace(c.FormValue("ai_image")); aiImage != "" && h.images.Exists(aiImage) {
			image = aiImage
		}
	}

	wine, err := h.store.Create(&form, image)
	if err != nil {
		return h.mutationError(c, log, err, "create")
	}

	prometheus.RecordWineOperation("create")
	log.Info("Wine created", zap.Uint("wine_id", wine.ID), zap.String("name", wine.Name))
	return h.mutationResponse(c, log, wine)
}

// Edit handles updating an existing wine
func (h *WineHandler) Edit(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("update_wine")(time.Now())

	id, err := wineID(c)
	if err != nil {
		return h.notFound(c)
	}

	var form model.WineForm
	if err := c.Bind(&form); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&form); err != nil {
		return h.mutationError(c, log, &store.ValidationError{Field: "name", Reason: "must not be empty"}, "update")
	}

	newImage := h.saveUpload(c, log)

	wine, err := h.store.Update(id, &form, newImage)
	if err != nil {
		return h.mutationError(c, log, err, "update")
	}

	prometheus.RecordWineOperation("update")
	log.Info("Wine updated", zap.Uint("wine_id", wine.ID), zap.String("name", wine.Name))
	return h.mutationResponse(c, log, wine)
}

// Duplicate handles copying a wine into a new record, optionally with a
// different vintage and quantity
func (h *WineHandler) Duplicate(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("duplicate_wine")(time.Now())

	id, err := wineID(c)
	if err != nil {
		return h.notFound(c)
	}

	wine, err := h.store.Duplicate(id, c.FormValue("new_year"), c.FormValue("quantity"))
	if err != nil {
		return h.mutationError(c, log, err, "duplicate")
	}

	prometheus.RecordWineOperation("duplicate")
	log.Info("Wine duplicated", zap.Uint("source_id", id), zap.Uint("wine_id", wine.ID))
	return h.mutationResponse(c, log, wine)
}

// Delete handles removing a wine and, when unreferenced, its image file
func (h *WineHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("delete_wine")(time.Now())

	id, err := wineID(c)
	if err != nil {
		return h.notFound(c)
	}

	deletedID, err := h.store.Delete(id)
	if err != nil {
		return h.mutationError(c, log, err, "delete")
	}

	prometheus.RecordWineOperation("delete")
	log.Info("Wine deleted", zap.Uint("wine_id", deletedID))

	if !isAJAX(c) {
		return c.Redirect(http.StatusFound, "/")
	}
	stats := h.refreshStats(log)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "deleted": deletedID, "stats": stats})
}

// ServeUpload serves a stored label image by filename
func (h *WineHandler) ServeUpload(c echo.Context) error {
	path := h.images.Path(c.Param("filename"))
	if _, err := os.Stat(path); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Image not found"})
	}
	return c.File(path)
}

// saveUpload stores the request's image file, if any. A missing or
// disallowed file means the operation simply proceeds without an image.
func (h *WineHandler) saveUpload(c echo.Context, log *zap.Logger) string {
	file, err := c.FormFile("image")
	if err != nil {
		return ""
	}
	name, err := h.images.Save(file)
	if err != nil {
		if errors.Is(err, imagestore.ErrRejected) {
			log.Warn("Image rejected", zap.String("filename", file.Filename))
		} else {
			log.Error("Failed to save image", zap.Error(err))
		}
		return ""
	}
	return name
}

func (h *WineHandler) mutationResponse(c echo.Context, log *zap.Logger, wine *model.Wine) error {
	if !isAJAX(c) {
		return c.Redirect(http.StatusFound, "/?new="+strconv.FormatUint(uint64(wine.ID), 10))
	}
	stats := h.refreshStats(log)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "wine": wine, "stats": stats})
}

func (h *WineHandler) mutationError(c echo.Context, log *zap.Logger, err error, operation string) error {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Warn("Rejected wine input", zap.String("operation", operation), zap.Error(err))
		if !isAJAX(c) {
			return c.Redirect(http.StatusFound, "/")
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		return h.notFound(c)
	default:
		log.Error("Wine operation failed", zap.String("operation", operation), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "Operation failed"})
	}
}

// notFound redirects browsers back to the listing; API callers get a 404.
func (h *WineHandler) notFound(c echo.Context) error {
	if !isAJAX(c) {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "error": "Wine not found"})
}

func (h *WineHandler) refreshStats(log *zap.Logger) *store.QuickStats {
	stats, err := h.store.QuickStats()
	if err != nil {
		log.Error("Failed to compute stats", zap.Error(err))
		return &store.QuickStats{}
	}
	prometheus.UpdateBottlesInStock(float64(stats.Total))
	return stats
}

func wineID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func isAJAX(c echo.Context) bool {
	return c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest"
}
