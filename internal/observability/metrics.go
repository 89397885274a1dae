package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/infonest-auth/internal/auth"
)

// Metrics holds the Prometheus collectors exported by the service.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	gate       *prometheus.CounterVec
	authEvents *prometheus.CounterVec
}

// NewMetrics registers collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Errors rendered by the error middleware, by error code.",
		}, []string{"route", "method", "code"}),
		gate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_gate_requests_total",
			Help: "Authentication gate passes by outcome.",
		}, []string{"outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Registration and login events by type and reason.",
		}, []string{"event", "reason"}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.errors, m.gate, m.authEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// ObserveGate implements auth.OutcomeObserver.
func (m *Metrics) ObserveGate(outcome auth.GateOutcome) {
	if m == nil {
		return
	}
	m.gate.WithLabelValues(string(outcome)).Inc()
}

// RecordAuthEvent counts a registration or login event.
func (m *Metrics) RecordAuthEvent(event, reason string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, reason).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
