package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recall_http_requests_in_flight",
			Help: "Number of HTTP requests being served.",
		},
	)

	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_store_operations_total",
			Help: "Total number of memory store operations.",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recall_store_operation_duration_seconds",
			Help:    "Memory store operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	AuthRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recall_auth_rejections_total",
			Help: "Total number of requests rejected for a missing or invalid secret key.",
		},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recall_events_published_total",
			Help: "Total number of memory change events published.",
		},
		[]string{"event", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		StoreOperationsTotal,
		StoreOperationDuration,
		AuthRejectionsTotal,
		EventsPublishedTotal,
	)
}
