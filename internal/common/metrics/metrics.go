// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "plan_pipeline_stage_duration_seconds",
			Help: "Duration of each plan pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	PipelineStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_pipeline_stage_errors_total",
			Help: "Total number of stage invocations that produced errors",
		},
		[]string{"stage"},
	)

	PlansApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_pipeline_plans_applied_total",
			Help: "Total number of plans persisted",
		},
	)

	EntriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_pipeline_entries_created_total",
			Help: "Total number of draft timesheet entries created",
		},
	)
)
