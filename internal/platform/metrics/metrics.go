package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the request-level Prometheus metrics for the application.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all request-level Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskdeck_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, status string, seconds float64) {
	m.RequestDuration.WithLabelValues(method, status).Observe(seconds)
}
