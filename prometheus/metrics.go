package prometheus

import (
	"time"
	"wine-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Wine inventory metrics
	WineOperationsCounter prometheus.CounterVec
	BottlesInStockGauge   prometheus.Gauge

	// AI analysis metrics
	AIAnalysisCounter  prometheus.CounterVec
	AIAnalysisDuration prometheus.HistogramVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Wine operation metrics
	WineOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of wine inventory operations",
		},
		[]string{"operation"},
	)

	// Inventory level
	BottlesInStockGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_bottles_in_stock",
			Help: "Current number of bottles in stock",
		},
	)

	// AI analysis metrics
	AIAnalysisCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_ai_analysis_total",
			Help: "Total number of AI label analysis requests",
		},
		[]string{"provider", "outcome"},
	)

	AIAnalysisDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_ai_analysis_duration_seconds",
			Help:    "Duration of AI label analysis calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordWineOperation increments the counter for wine inventory operations
func RecordWineOperation(operation string) {
	WineOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordAIAnalysis increments the counter for AI analysis outcomes
func RecordAIAnalysis(provider string, outcome string) {
	AIAnalysisCounter.WithLabelValues(provider, outcome).Inc()
}

// UpdateBottlesInStock updates the in-stock bottle gauge
func UpdateBottlesInStock(count float64) {
	BottlesInStockGauge.Set(count)
}
