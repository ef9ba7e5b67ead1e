package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cfp",
		Subsystem: "ai",
		Name:      "provider_call_duration_seconds",
		Help:      "Duration of AI provider completion requests",
	}, []string{"provider", "model"})

	callFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cfp",
		Subsystem: "ai",
		Name:      "provider_call_failures_total",
		Help:      "Number of failed AI provider completion requests",
	}, []string{"provider", "model"})
)
