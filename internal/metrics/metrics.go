package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "Console HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "Console HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_upstream_requests_total",
			Help: "Calls to the integration backend by method, path and outcome.",
		},
		[]string{"method", "path", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_upstream_request_duration_seconds",
			Help:    "Integration backend latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActiveWebsockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "console_websocket_connections",
		Help: "Open event websockets.",
	})

	ConnectionsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "console_connections_updated_total",
		Help: "connectionsUpdated events published.",
	})
)
