// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_queries_total",
			Help: "Total number of queries processed, by final outcome",
		},
		[]string{"category", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_provider_calls_total",
			Help: "Provider retrieval calls, by provider and status",
		},
		[]string{"provider", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_cache_lookups_total",
			Help: "Response cache lookups, by result",
		},
		[]string{"result"},
	)

	ValidationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_validation_outcomes_total",
			Help: "Answer validation outcomes, by layer and result",
		},
		[]string{"layer", "result"},
	)
)
