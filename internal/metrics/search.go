package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelsearch",
			Name:      "backend_requests_total",
			Help:      "Total number of search backend requests",
		},
		[]string{"status"},
	)

	BackendRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modelsearch",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	BackendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelsearch",
			Name:      "backend_errors_total",
			Help:      "Total search backend errors",
		},
		[]string{"error_type"}, // "transport" / "status" / "decode"
	)

	BackendResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modelsearch",
			Name:      "backend_results_returned",
			Help:      "Number of items returned per successful backend search",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 500},
		},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelsearch",
			Name:      "response_cache_total",
			Help:      "Backend response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelsearch",
			Name:      "pipeline_runs_total",
			Help:      "Result pipeline runs by outcome",
		},
		[]string{"result"}, // "computed" / "memoized"
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "modelsearch",
			Name:      "pipeline_duration_seconds",
			Help:      "Result pipeline recompute duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	StaleResponsesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelsearch",
			Name:      "stale_responses_total",
			Help:      "Search responses discarded because a newer search was issued",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendErrorsTotal)
	prometheus.MustRegister(BackendResultsReturned)
	prometheus.MustRegister(ResponseCacheTotal)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(StaleResponsesTotal)
	searchMetricsRegistered = true
}
