package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline and response cache Prometheus metrics.
var (
	// CacheHitTotal counts response cache hits per tier (gen, ret, other).
	CacheHitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusionrag",
			Name:      "cache_hit_total",
			Help:      "Total response cache hits",
		},
		[]string{"tier"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusionrag",
			Name:      "cache_requests_total",
			Help:      "Response cache lookups by outcome",
		},
		[]string{"tier", "result"}, // hit, miss, error, disabled
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fusionrag",
			Name:      "retrieval_pipeline_duration_seconds",
			Help:      "End-to-end retrieval pipeline duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
		},
		[]string{"outcome"},
	)

	AdapterErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusionrag",
			Name:      "retrieval_adapter_errors_total",
			Help:      "Retrieval adapter failures degraded to empty results",
		},
		[]string{"adapter"},
	)

	FailReasonTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusionrag",
			Name:      "retrieval_fail_reason_total",
			Help:      "Pipeline failure reason counts",
		},
		[]string{"reason"},
	)

	RerankTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusionrag",
			Name:      "rerank_total",
			Help:      "Rerank calls by outcome",
		},
		[]string{"result"}, // reranked, fallback
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval and cache metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheHitTotal)
	prometheus.MustRegister(CacheRequestsTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(AdapterErrorsTotal)
	prometheus.MustRegister(FailReasonTotal)
	prometheus.MustRegister(RerankTotal)
	retrievalMetricsRegistered = true
}
