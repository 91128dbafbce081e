// Package metrics exposes Prometheus instrumentation for the recommender.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by token mode",
		},
		[]string{"mode"}, // "vi", "ascii", "empty"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of restaurants returned per recommendation",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 10, 12},
		},
	)

	RecommendNoResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_no_results_total",
			Help: "Total number of recommendations that returned no restaurants",
		},
	)

	// Catalog index metrics
	CatalogRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rebuilds_total",
			Help: "Total number of catalog index rebuild attempts",
		},
		[]string{"status"}, // "success", "error"
	)

	CatalogRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_rebuild_duration_seconds",
			Help:    "Duration of catalog index rebuilds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of restaurants in the current catalog snapshot",
		},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_breaker_state",
			Help: "Catalog source circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Response cache metrics
	ResponseCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of recommendation response cache hits",
		},
	)

	ResponseCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of recommendation response cache misses",
		},
	)

	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Importer metrics
	ImportedRestaurants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_restaurants_total",
			Help: "Total number of restaurants processed by the importer",
		},
		[]string{"status"}, // "upserted", "skipped", "failed"
	)
)

// RecordRecommendation records one completed recommendation.
func RecordRecommendation(mode string, results int, duration time.Duration) {
	RecommendRequests.WithLabelValues(mode).Inc()
	RecommendDuration.Observe(duration.Seconds())
	RecommendResults.Observe(float64(results))
	if results == 0 {
		RecommendNoResults.Inc()
	}
}

// RecordCatalogRebuild records a catalog rebuild attempt. size is ignored on error.
func RecordCatalogRebuild(size int, duration time.Duration, err error) {
	CatalogRebuildDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogRebuilds.WithLabelValues("error").Inc()
		return
	}
	CatalogRebuilds.WithLabelValues("success").Inc()
	CatalogSize.Set(float64(size))
}

// RecordCacheLookup records a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		ResponseCacheHits.Inc()
		return
	}
	ResponseCacheMisses.Inc()
}

// SetBreakerState publishes the catalog breaker state as a number.
func SetBreakerState(state int) {
	CatalogBreakerState.Set(float64(state))
}

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordImport records the outcome of importing one restaurant.
func RecordImport(status string) {
	ImportedRestaurants.WithLabelValues(status).Inc()
}
