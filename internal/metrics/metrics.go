package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances (tests, commands)
// never collide on the global one.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pending         *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "testdesk_api_requests_total",
				Help: "Total number of test service requests",
			},
			[]string{"op", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "testdesk_api_request_duration_seconds",
				Help:    "Duration of test service requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"op"},
		),
		pending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "testdesk_pending_operations",
				Help: "Operations in flight, by kind",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.pending)
	return m
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(op, outcome string, d time.Duration) {
	m.requests.WithLabelValues(op, outcome).Inc()
	m.requestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetPending sets the in-flight gauge for kind.
func (m *Metrics) SetPending(kind string, n int) {
	m.pending.WithLabelValues(kind).Set(float64(n))
}

// Registry exposes the registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
