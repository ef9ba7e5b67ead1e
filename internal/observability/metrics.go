package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	reviewJobsTotal    *prometheus.CounterVec
	reviewDuration     prometheus.Histogram
	reviewCostUSDTotal prometheus.Counter
	webhookDeliveries  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the plugin service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfp_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cfp_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		reviewJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfp_review_jobs_total",
			Help: "Total number of review jobs by outcome.",
		}, []string{"outcome"})

		reviewDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfp_review_duration_seconds",
			Help:    "End-to-end duration of review jobs, including provider calls.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		})

		reviewCostUSDTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cfp_review_cost_usd_total",
			Help: "Cumulative provider spend attributed to completed reviews.",
		})

		webhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfp_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			reviewJobsTotal,
			reviewDuration,
			reviewCostUSDTotal,
			webhookDeliveries,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// ReviewJobs exposes the counter for review job outcomes.
func ReviewJobs() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewJobsTotal
}

// ReviewDurations exposes the review job duration histogram.
func ReviewDurations() prometheus.Histogram {
	RegisterMetrics()
	return reviewDuration
}

// ReviewCost exposes the cumulative review spend counter.
func ReviewCost() prometheus.Counter {
	RegisterMetrics()
	return reviewCostUSDTotal
}

// WebhookDeliveries exposes the counter for webhook delivery outcomes.
func WebhookDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return webhookDeliveries
}
