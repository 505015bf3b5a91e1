// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration records request latency by route pattern, method and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nisser_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// OutboxRelayed counts outbox rows handled by the relay by event type and result.
	OutboxRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nisser_outbox_relayed_total",
		Help: "Outbox events handled by the relay",
	}, []string{"event_type", "result"})

	// StreamMessagesHandled counts stream messages by event type and result.
	StreamMessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nisser_stream_messages_handled_total",
		Help: "Notification stream messages processed by workers",
	}, []string{"event_type", "result"})

	// NotificationsWritten counts notification rows inserted by type.
	NotificationsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nisser_notifications_written_total",
		Help: "Notification rows written",
	}, []string{"type"})

	// RateLimited counts rejected requests by limiter name.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nisser_rate_limited_total",
		Help: "Requests rejected by rate limiting",
	}, []string{"limiter"})
)
