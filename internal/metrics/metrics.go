// Package metrics exposes Prometheus collectors for HTTP traffic and ledger outcomes.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/kodbank-be/internal/ledger"
	"github.com/hongminglow/kodbank-be/internal/storage"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Outcome labels for kodbank_ledger_operations_total.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeLockTimeout = "lock_timeout"
	OutcomeError       = "error"
)

// Metrics holds the service collectors.
type Metrics struct {
	registry       *prometheus.Registry
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	ledgerOps      *prometheus.CounterVec
}

// New registers the collectors on a fresh registry that also carries the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kodbank",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kodbank",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kodbank",
			Name:      "ledger_operations_total",
			Help:      "Ledger mutations by operation and outcome",
		}, []string{"op", "outcome"}),
	}
	m.registry.MustRegister(
		m.requestTotal,
		m.requestLatency,
		m.ledgerOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(duration.Seconds())
}

// ObserveLedgerOperation implements ledger.Recorder.
func (m *Metrics) ObserveLedgerOperation(op string, err error) {
	m.ledgerOps.With(prometheus.Labels{"op": op, "outcome": Outcome(err)}).Inc()
}

// Outcome classifies a ledger error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, storage.ErrLockTimeout):
		return OutcomeLockTimeout
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrBalanceLimit),
		errors.Is(err, ledger.ErrRecipientNotFound),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrMissingRecipient),
		errors.Is(err, ledger.ErrAccountNotFound):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
