// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeToggles counts like toggles by target kind and outcome.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_like_toggles_total",
		Help: "Like toggles by target kind and outcome (liked, unliked, error)",
	}, []string{"kind", "outcome"})

	// ImageUploads counts image store uploads by outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_image_uploads_total",
		Help: "Image uploads by outcome",
	}, []string{"outcome"})
)

// ObserveQuery records the latency of a database statement that started at start.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RecordLikeToggle records the outcome of one toggle.
func RecordLikeToggle(kind string, liked bool, err error) {
	outcome := "unliked"
	switch {
	case err != nil:
		outcome = "error"
	case liked:
		outcome = "liked"
	}
	LikeToggles.WithLabelValues(kind, outcome).Inc()
}
