// Package metrics provides Prometheus metrics collection for rankgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for rankgate.
type Collector struct {
	// Registry is the registry all metrics are registered on; the
	// /metrics endpoint gathers from it.
	Registry *prometheus.Registry

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Admission metrics
	QuotaRejections       *prometheus.CounterVec
	UnresolvedCredentials prometheus.Counter

	// Ledger metrics
	LedgerWrites        prometheus.Counter
	LedgerWriteFailures prometheus.Counter
}

// New creates a new metrics collector and registers it on its own
// registry, so tests can create collectors freely without duplicate
// registration panics.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rankgate",
				Name:      "requests_total",
				Help:      "Total number of metered requests processed",
			},
			[]string{"endpoint", "status", "tier"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "rankgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rankgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		QuotaRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rankgate",
				Name:      "quota_rejections_total",
				Help:      "Total number of requests rejected over quota",
			},
			[]string{"tier"},
		),
		UnresolvedCredentials: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rankgate",
				Name:      "unresolved_credentials_total",
				Help:      "Total number of metered requests whose API key did not resolve",
			},
		),
		LedgerWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rankgate",
				Name:      "ledger_writes_total",
				Help:      "Total number of usage records appended",
			},
		),
		LedgerWriteFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rankgate",
				Name:      "ledger_write_failures_total",
				Help:      "Total number of dropped usage record writes",
			},
		),
	}

	reg.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.RequestsInFlight,
		c.QuotaRejections,
		c.UnresolvedCredentials,
		c.LedgerWrites,
		c.LedgerWriteFailures,
	)

	return c
}

// ObserveRequest records one completed metered request.
func (c *Collector) ObserveRequest(endpoint string, status int, tier string, elapsed time.Duration) {
	if c == nil {
		return
	}
	s := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(endpoint, s, tier).Inc()
	c.RequestDuration.WithLabelValues(endpoint, s).Observe(elapsed.Seconds())
}
