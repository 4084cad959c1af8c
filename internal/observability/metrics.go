// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Provider metrics
	ProviderCalls       *prometheus.CounterVec
	ProviderErrors      *prometheus.CounterVec
	ProviderCallLatency *prometheus.HistogramVec

	// Rate limit metrics
	RateLimitRejections *prometheus.CounterVec

	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram

	// Batch metrics
	BatchesTotal   prometheus.Counter
	BatchItems     *prometheus.CounterVec
	BatchDuration  prometheus.Histogram
	QuotaRejected  prometheus.Counter

	// Storage metrics
	StoreWriteErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_risk_engine"
	}

	return &Metrics{
		// Cache metrics
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits by service",
		}, []string{"service"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses by service",
		}, []string{"service"}),

		// Provider metrics
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of upstream provider calls by service",
		}, []string{"service"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total number of failed provider calls by service",
		}, []string{"service"}),
		ProviderCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),

		// Rate limit metrics
		RateLimitRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Total number of calls rejected by the rate limiter",
		}, []string{"service"}),

		// Analysis metrics
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "completed_total",
			Help:      "Total number of completed analyses by risk level",
		}, []string{"level"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Single-token analysis duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Batch metrics
		BatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Total number of batch runs",
		}),
		BatchItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "items_total",
			Help:      "Total number of batch items by outcome",
		}, []string{"outcome"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Batch execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		QuotaRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "quota_rejected_total",
			Help:      "Total number of batches rejected for exceeding the tier quota",
		}),

		// Storage metrics
		StoreWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "write_errors_total",
			Help:      "Total number of failed store writes by backend",
		}, []string{"backend"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCacheHit increments the cache hit counter for a service.
func RecordCacheHit(service string) {
	DefaultMetrics.CacheHits.WithLabelValues(service).Inc()
}

// RecordCacheMiss increments the cache miss counter for a service.
func RecordCacheMiss(service string) {
	DefaultMetrics.CacheMisses.WithLabelValues(service).Inc()
}

// RecordProviderCall records one upstream call with its latency and outcome.
func RecordProviderCall(service string, seconds float64, err error) {
	DefaultMetrics.ProviderCalls.WithLabelValues(service).Inc()
	DefaultMetrics.ProviderCallLatency.WithLabelValues(service).Observe(seconds)
	if err != nil {
		DefaultMetrics.ProviderErrors.WithLabelValues(service).Inc()
	}
}

// RecordRateLimited increments the rejection counter for a service.
func RecordRateLimited(service string) {
	DefaultMetrics.RateLimitRejections.WithLabelValues(service).Inc()
}

// RecordAnalysis records one completed analysis.
func RecordAnalysis(level string, seconds float64) {
	DefaultMetrics.AnalysesTotal.WithLabelValues(level).Inc()
	DefaultMetrics.AnalysisDuration.Observe(seconds)
}

// RecordBatch records a finished batch run.
func RecordBatch(succeeded, failed int, seconds float64) {
	DefaultMetrics.BatchesTotal.Inc()
	DefaultMetrics.BatchItems.WithLabelValues("succeeded").Add(float64(succeeded))
	DefaultMetrics.BatchItems.WithLabelValues("failed").Add(float64(failed))
	DefaultMetrics.BatchDuration.Observe(seconds)
}

// RecordQuotaRejected increments the quota rejection counter.
func RecordQuotaRejected() {
	DefaultMetrics.QuotaRejected.Inc()
}

// RecordStoreWriteError increments the write error counter for a backend.
func RecordStoreWriteError(backend string) {
	DefaultMetrics.StoreWriteErrors.WithLabelValues(backend).Inc()
}
