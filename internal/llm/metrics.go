package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_llm_requests_total",
			Help: "Total number of generation requests, partitioned by model and status.",
		},
		[]string{"model", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backlog_llm_request_duration_seconds",
			Help:    "Duration of generation requests.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"model"},
	)
	PromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backlog_llm_prompt_tokens",
			Help:    "Prompt tokens per request (reported by the provider or estimated).",
			Buckets: prometheus.ExponentialBuckets(256, 2, 10),
		},
		[]string{"model"},
	)
	CompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backlog_llm_completion_tokens",
			Help:    "Completion tokens per request.",
			Buckets: prometheus.ExponentialBuckets(128, 2, 8),
		},
		[]string{"model"},
	)
)

// Request statuses used as metric labels.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusEmpty       = "error_empty_response"
	StatusUnavailable = "unavailable"
)
