package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests          *prometheus.CounterVec
	httpLatency           *prometheus.HistogramVec
	httpErrors            *prometheus.CounterVec
	transitions           *prometheus.CounterVec
	transitionLatency     *prometheus.HistogramVec
	movements             *prometheus.CounterVec
	collaboratorFailures  *prometheus.CounterVec
	reconciliationPending prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "HTTP error responses by domain code.",
			},
			[]string{"method", "path", "code"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistencia_transitions_total",
				Help: "Item transitions by operation and result.",
			},
			[]string{"operacao", "resultado"},
		),
		transitionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistencia_transition_duration_seconds",
				Help:    "Item transition latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operacao"},
		),
		movements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistencia_movements_total",
				Help: "Inventory movements recorded by operation.",
			},
			[]string{"operacao"},
		),
		collaboratorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistencia_collaborator_failures_total",
				Help: "Failed or timed out collaborator calls.",
			},
			[]string{"collaborator"},
		),
		reconciliationPending: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "assistencia_reconciliation_pending_total",
				Help: "Cancellations that left stock to reconcile by hand.",
			},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.httpErrors,
		m.transitions,
		m.transitionLatency,
		m.movements,
		m.collaboratorFailures,
		m.reconciliationPending,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, path, code).Inc()
}

// RecordTransition counts one applyTransition call. result is "ok", "replay"
// or the domain error code.
func (m *Metrics) RecordTransition(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, result).Inc()
	m.transitionLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordMovement(operation string) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordCollaboratorFailure(collaborator string) {
	if m == nil {
		return
	}
	m.collaboratorFailures.WithLabelValues(collaborator).Inc()
}

func (m *Metrics) RecordReconciliationPending() {
	if m == nil {
		return
	}
	m.reconciliationPending.Inc()
}
