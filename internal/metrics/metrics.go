package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_evaluations_total",
			Help: "Total completed opportunity evaluations by recommendation",
		},
		[]string{"recommendation"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_evaluation_duration_seconds",
			Help:    "Duration of a single opportunity evaluation",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_batch_items_total",
			Help: "Batch evaluation items by terminal status",
		},
		[]string{"status"},
	)

	EnrichmentCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_enrichment_calls_total",
			Help: "AI enrichment attempts by provider and result",
		},
		[]string{"provider", "result"},
	)

	OutcomesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triage_outcomes_recorded_total",
			Help: "Total decision outcomes attached",
		},
	)
)
