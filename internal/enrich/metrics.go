package enrich

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts provider invocations.
	// Labels: provider, result (success, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notesd",
			Subsystem: "enrich",
			Name:      "requests_total",
			Help:      "Total number of enrichment provider invocations",
		},
		[]string{"provider", "result"},
	)

	// FallbacksTotal counts recoveries through the rule-based provider.
	// Labels: from (the provider that failed)
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notesd",
			Subsystem: "enrich",
			Name:      "fallbacks_total",
			Help:      "Total number of fallbacks to the rule-based provider",
		},
		[]string{"from"},
	)

	// Duration tracks provider latency.
	Duration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notesd",
			Subsystem: "enrich",
			Name:      "duration_seconds",
			Help:      "Duration of enrichment provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)
