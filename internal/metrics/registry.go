package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SearchSourceTotal counts registry reads by the source that served them.
	SearchSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repertoire",
			Name:      "registry_search_source_total",
			Help:      "Registry searches by serving source (index or relational)",
		},
		[]string{"source"},
	)

	// IndexFallbacksTotal counts silent fallbacks from the search index to the store.
	IndexFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repertoire",
			Name:      "registry_index_fallbacks_total",
			Help:      "Falls back from the search index to the store, by reason",
		},
		[]string{"reason"},
	)

	// SyncDispatchTotal counts fire-and-forget index reconcile dispatches.
	SyncDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repertoire",
			Name:      "registry_sync_dispatch_total",
			Help:      "Index reconcile dispatches by action and outcome",
		},
		[]string{"action", "status"},
	)

	// IndexRequestDuration observes outbound search index query latency.
	IndexRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "repertoire",
			Name:      "search_index_request_duration_seconds",
			Help:      "Search index query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"status"},
	)
)

// RegisterRegistryMetrics registers the registry collectors explicitly (no init()).
func RegisterRegistryMetrics() {
	prometheus.MustRegister(SearchSourceTotal)
	prometheus.MustRegister(IndexFallbacksTotal)
	prometheus.MustRegister(SyncDispatchTotal)
	prometheus.MustRegister(IndexRequestDuration)
}
