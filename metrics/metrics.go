// Package metrics exposes Prometheus instrumentation for the image cache
// service: cache effectiveness, generation outcomes, compensating cleanups,
// and HTTP latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheHitsTotal counts requests served from the cache index.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_cache_hits_total",
			Help: "Total number of image requests served from the cache.",
		},
	)

	// CacheMissesTotal counts requests that triggered fresh generation.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_cache_misses_total",
			Help: "Total number of image requests that missed the cache.",
		},
	)

	// GenerationFailuresTotal counts failed generation pipelines by error kind.
	GenerationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_generation_failures_total",
			Help: "Total number of failed image generation requests by error kind.",
		},
		[]string{"kind"},
	)

	// CompensatingDeletesTotal counts artifact cleanups after a failed index
	// insert. A rising count means the index backend is struggling.
	CompensatingDeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_compensating_deletes_total",
			Help: "Total number of artifact deletions compensating a failed cache insert.",
		},
	)

	// GenerationDurationSeconds measures the provider round-trip, retries
	// included.
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_generation_duration_seconds",
			Help:    "Wall-clock duration of image generation, retries included.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	// RequestLatencySeconds measures HTTP latency per route.
	RequestLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"path", "method", "status_code"},
	)
)

// Register is called once in main() to register all collectors.
func Register() {
	prometheus.MustRegister(
		CacheHitsTotal,
		CacheMissesTotal,
		GenerationFailuresTotal,
		CompensatingDeletesTotal,
		GenerationDurationSeconds,
		RequestLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures request latency per route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		RequestLatencySeconds.
			WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
