// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	FlatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flat_api_requests_total",
		Help: "Calls to the Flat API by operation and outcome.",
	}, []string{"operation", "outcome"})

	FlatDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flat_api_request_duration_seconds",
		Help:    "Flat API latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rooms_created_total",
		Help: "Rooms created through the booking flow.",
	})

	QuotaDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_denials_total",
		Help: "Room creation attempts denied by subscription quota.",
	}, []string{"reason"})

	WorkerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_processed_total",
		Help: "Subscriptions processed by the background worker.",
	}, []string{"action"})
)

// Outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeUpstream  = "upstream_error"
	OutcomeTransport = "transport_error"
)

// ObserveFlat records one Flat API call.
func ObserveFlat(operation, outcome string, seconds float64) {
	FlatRequests.WithLabelValues(operation, outcome).Inc()
	FlatDuration.WithLabelValues(operation).Observe(seconds)
}
