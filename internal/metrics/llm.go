// Package metrics defines the cartwise Prometheus metrics and the HTTP
// instrumentation middleware.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM and pipeline Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartwise",
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"op", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cartwise",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"op", "model"},
	)

	PipelineFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartwise",
			Name:      "pipeline_fallbacks_total",
			Help:      "Degradations to a local fallback, per pipeline stage",
		},
		[]string{"stage"}, // "classify" / "generate"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cartwise",
			Name:      "queries_total",
			Help:      "Processed queries by outcome",
		},
		[]string{"outcome"}, // "ok" / "no_match" / "clarify" / "error"
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers the LLM and pipeline metrics. Must be
// called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(PipelineFallbacksTotal)
	prometheus.MustRegister(QueriesTotal)
	llmMetricsRegistered = true
}
