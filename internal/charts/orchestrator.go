package charts

import (
	"context"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/common"
	"quantum-dashboard/internal/feed"
	"quantum-dashboard/internal/widgets"

	"github.com/rs/zerolog/log"
)

// MetricsFetcher loads performance metrics narrowed by a query.
type MetricsFetcher func(ctx context.Context, q backend.Query) (backend.PerformanceMetrics, error)

// View is what the chart area displays for one filter.
type View struct {
	Filter  Filter
	Query   string
	State   feed.State
	Message string
	Chart   *Chart
	SVG     string
}

// Orchestrator selects and renders exactly one chart for a filter.
type Orchestrator struct {
	snapshot func() feed.Result[backend.PerformanceMetrics]
	fetch    MetricsFetcher
	timeout  time.Duration
	opts     Options
}

// NewOrchestrator reads unfiltered data from snapshot and issues a one-shot
// fetch when the filter narrows the query.
func NewOrchestrator(snapshot func() feed.Result[backend.PerformanceMetrics], fetch MetricsFetcher,
	timeout time.Duration, opts Options) *Orchestrator {
	return &Orchestrator{snapshot: snapshot, fetch: fetch, timeout: timeout, opts: opts}
}

func (o *Orchestrator) Render(ctx context.Context, f Filter) View {
	v := View{Filter: f}

	q, err := f.Query()
	if err != nil {
		v.State = feed.Failed
		v.Message = "Invalid filter: " + err.Error()
		return v
	}
	v.Query = q.String()

	var res feed.Result[backend.PerformanceMetrics]
	if q.IsZero() {
		res = o.snapshot()
	} else {
		res = feed.Once(ctx, o.timeout, func(ctx context.Context) (backend.PerformanceMetrics, error) {
			return o.fetch(ctx, q)
		})
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("query", v.Query).Msg("Filtered chart fetch failed")
		}
	}

	v.State = res.State
	switch res.State {
	case feed.Pending:
		v.Message = "Loading charts..."
		return v
	case feed.Failed:
		v.Message = widgets.FailureMessage(common.ResourcePerformance, res.Err)
		return v
	}

	v.Chart = Build(f.ChartType, res.Value, o.opts)
	if v.Chart == nil {
		return v
	}
	if v.Chart.Empty() {
		v.Message = "No data"
		return v
	}

	svg, err := SVG(v.Chart)
	if err != nil {
		log.Error().Err(err).Str("chartType", f.ChartType).Msg("Chart rendering failed")
		v.State = feed.Failed
		v.Message = "Failed to render chart: " + err.Error()
		return v
	}
	v.SVG = svg
	return v
}
