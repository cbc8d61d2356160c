package main

import (
	"wine-service/internal/ai"
	"wine-service/internal/handler"
	"wine-service/internal/imagestore"
	mid "wine-service/internal/middleware"
	"wine-service/internal/store"
	"wine-service/pkg/config"
	"wine-service/pkg/database"
	"wine-service/pkg/logger"
	"wine-service/prometheus"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// formValidator wires go-playground/validator into Echo
type formValidator struct {
	validate *validator.Validate
}

func (v *formValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func main() {
	// Load .env file; missing file is fine, env vars may be set elsewhere
	_ = godotenv.Load()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting wine-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize image storage
	images, err := imagestore.New(appConfig.Upload.Dir, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	log.Info("Image storage ready", zap.String("dir", images.Dir()))

	// Wire the store, analyzer and handlers
	wineStore := store.NewWineStore(database.GetDB(), images)
	analyzer := ai.NewAnalyzer(appConfig, images, log)

	wines := handler.NewWineHandler(wineStore, images, appConfig)
	stats := handler.NewStatsHandler(wineStore, appConfig)
	analyze := handler.NewAnalyzeHandler(analyzer, appConfig)

	// Initialize Echo instance
	e := echo.New()
	e.Validator = &formValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.Health)

	// Inventory routes
	e.GET("/", wines.List)
	e.POST("/add", wines.Add)
	e.POST("/edit/:id", wines.Edit)
	e.POST("/duplicate/:id", wines.Duplicate)
	e.POST("/delete/:id", wines.Delete)
	e.GET("/uploads/:filename", wines.ServeUpload)

	// Statistics routes
	e.GET("/stats", stats.Stats)
	e.GET("/api/summary", stats.Summary)

	// AI label analysis
	e.POST("/api/analyze-wine", analyze.Analyze)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
