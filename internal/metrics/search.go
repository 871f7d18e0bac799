// Package metrics owns the Prometheus collectors of the API server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search engine Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsearch",
			Name:      "search_requests_total",
			Help:      "Total ranked responses by operation and match type",
		},
		[]string{"operation", "match_type"},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prodsearch",
			Name:      "search_stage_duration_seconds",
			Help:      "Cascade stage duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"stage"},
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsearch",
			Name:      "search_errors_total",
			Help:      "Total failed engine operations",
		},
		[]string{"operation", "error_type"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsearch",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IndexReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsearch",
			Name:      "index_reloads_total",
			Help:      "Text index snapshot loads",
		},
		[]string{"result"}, // "ok" / "error"
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prodsearch",
			Name:      "index_documents",
			Help:      "Rows in the active text index snapshot",
		},
	)
)

var registerOnce sync.Once

// Register adds the HTTP and search collectors to the default registry.
// Later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			httpInFlight,
			SearchRequestsTotal,
			SearchStageDuration,
			SearchErrorsTotal,
			ResultCacheTotal,
			IndexReloadsTotal,
			IndexDocuments,
		)
	})
}
