// Package metrics provides Prometheus metrics for the dashboard.
// It covers backend fetches, operator order actions, the WebSocket push
// channel and page rendering, exposed on the metrics endpoint.
package metrics

import (
	"quantum-dashboard/internal/backend"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Backend reads
	FetchesTotal  *prometheus.CounterVec   // Fetches by resource and outcome
	FetchDuration *prometheus.HistogramVec // Fetch latency by resource

	// Operator actions
	OrderActionsTotal   *prometheus.CounterVec   // Actions by action and outcome
	OrderActionDuration *prometheus.HistogramVec // Action latency by action

	// Push channel and pages
	WSClients      prometheus.Gauge       // Connected WebSocket clients
	WSMessagesSent prometheus.Counter     // Update notifications sent
	PageRenders    *prometheus.CounterVec // Rendered pages and fragments by name

	// Last known trading state
	OpenPositions     prometheus.Gauge
	ComplianceWarning prometheus.Gauge

	ErrorsTotal prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Total number of backend fetches by resource and outcome",
		}, []string{"resource", "outcome"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Backend fetch latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"resource"}),
		OrderActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_order_actions_total",
			Help: "Total number of operator order actions by action and outcome",
		}, []string{"action", "outcome"}),
		OrderActionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_order_action_duration_seconds",
			Help:    "Order action round trip in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Number of connected WebSocket clients",
		}),
		WSMessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_ws_messages_sent_total",
			Help: "Total number of update notifications broadcast",
		}),
		PageRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_page_renders_total",
			Help: "Total number of rendered pages and widget fragments",
		}, []string{"name"}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_open_positions",
			Help: "Open positions in the last live status",
		}),
		ComplianceWarning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_compliance_warning",
			Help: "1 when the last live status carried a compliance warning",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_errors_total",
			Help: "Total number of errors encountered",
		}),
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// UpdateLiveStatus mirrors the open position count and compliance warning.
func (m *Metrics) UpdateLiveStatus(status backend.LiveStatus) {
	m.OpenPositions.Set(float64(len(status.OpenPositions)))
	warning := 0.0
	if status.ComplianceStatus != nil && status.ComplianceStatus.Warning {
		warning = 1
	}
	m.ComplianceWarning.Set(warning)
}

// GetFetchErrorRate returns failed fetches over all fetches, or 0 before the first fetch.
func (m *Metrics) GetFetchErrorRate() float64 {
	if m.gatherer == nil {
		return 0
	}
	metricFamilies, err := m.gatherer.Gather()
	if err != nil {
		return 0
	}

	var total, failed float64
	for _, mf := range metricFamilies {
		if mf.GetName() != "dashboard_fetches_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			v := metric.GetCounter().GetValue()
			total += v
			for _, l := range metric.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == OutcomeError {
					failed += v
				}
			}
		}
	}

	if total == 0 {
		return 0
	}
	return failed / total
}
