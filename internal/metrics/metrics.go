// Package metrics registers the prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_invocations_total",
		Help: "Agent invocations by outcome.",
	}, []string{"outcome"})

	InvocationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deepresearch_invocation_duration_seconds",
		Help:    "Wall time of one agent invocation.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepresearch_tool_calls_total",
		Help: "Tool calls by tool name.",
	}, []string{"tool"})
)
