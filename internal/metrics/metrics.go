// Package metrics holds the process-wide Prometheus collectors for pipeline
// runs and the HTTP boundary.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages used as the "stage" label.
const (
	StageExtract  = "extract"
	StagePrompt   = "prompt"
	StageGenerate = "generate"
	StageRecover  = "recover"
	StageValidate = "validate"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backlog_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_pipeline_runs_total",
			Help: "Total number of pipeline runs, partitioned by input kind and outcome.",
		},
		[]string{"input_kind", "outcome"},
	)
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_pipeline_failures_total",
			Help: "Total number of failed runs, partitioned by error code.",
		},
		[]string{"code"},
	)
	RecoveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_recovery_strategy_total",
			Help: "Responses parsed, partitioned by the recovery strategy that succeeded.",
		},
		[]string{"strategy"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_http_requests_total",
			Help: "Total number of HTTP requests, partitioned by route and status code.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backlog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveStage records the time elapsed since start for stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
