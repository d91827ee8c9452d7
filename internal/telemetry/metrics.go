// Package telemetry provides application-level observability for the chatbot backend.
//
// All metrics are registered against the default Prometheus registry and served
// on the side-channel HTTP server started by cmd/server:
//
//	GET http://<host>:<CHB_TELEMETRY_METRICS_PORT>/metrics
//
// Default port: 9090. The endpoint is deliberately not part of the Gin router
// so the scrape path stays off the public ingress.
//
// HTTP metrics are labelled by c.FullPath() (the route template, e.g.
// /user-requests/:id/admin-response) rather than the raw URL so user-supplied
// path segments cannot inflate label cardinality.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
var (
	// HTTPRequestsTotal counts requests through the Gin router.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency per route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route template.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Completion-provider metrics. The relay makes exactly one provider call per
// chat request, so provider_requests_total also counts relay attempts.
var (
	// ProviderRequestsTotal counts outbound completion calls by outcome
	// ("ok", "error", "timeout").
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of completion-provider calls, by outcome.",
		},
		[]string{"outcome"},
	)

	// ProviderRequestDuration observes end-to-end latency of completion calls.
	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Completion-provider call latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	// ChatExchangesTotal counts chat exchanges persisted to the audit trail.
	ChatExchangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_exchanges_total",
			Help: "Total number of chat exchanges persisted.",
		},
	)
)
