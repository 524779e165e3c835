package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Interfaces for metrics to avoid circular imports
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Set(float64)
	Add(float64)
}

// MetricsWrapper adapts Metrics to the small interfaces the feed, orders and
// dashboard packages report through.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// ObserveFetch records one completed subscription fetch.
func (w *MetricsWrapper) ObserveFetch(resource string, d time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		w.m.ErrorsTotal.Inc()
	}
	w.m.FetchesTotal.WithLabelValues(resource, outcome).Inc()
	w.m.FetchDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// OrderActionObserve records one operator action.
func (w *MetricsWrapper) OrderActionObserve(action, outcome string, seconds float64) {
	w.m.OrderActionsTotal.WithLabelValues(action, outcome).Inc()
	w.m.OrderActionDuration.WithLabelValues(action).Observe(seconds)
}

func (w *MetricsWrapper) WSClients() MetricsGauge {
	return &GaugeWrapper{w.m.WSClients}
}

func (w *MetricsWrapper) WSMessagesSent() MetricsCounter {
	return &CounterWrapper{w.m.WSMessagesSent}
}

func (w *MetricsWrapper) PageRendered(name string) {
	w.m.PageRenders.WithLabelValues(name).Inc()
}

func (w *MetricsWrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}
