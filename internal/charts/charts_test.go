package charts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/common"
	"quantum-dashboard/internal/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetrics() backend.PerformanceMetrics {
	return backend.PerformanceMetrics{
		EquityHistory: []backend.EquityPoint{
			{Timestamp: backend.Timestamp{Text: "2025-07-26 10:00"}, Equity: 10000, Balance: 10000},
			{Timestamp: backend.Timestamp{Text: "2025-07-26 11:00"}, Equity: 10120, Balance: 10050},
		},
		DrawdownHistory: []backend.DrawdownPoint{
			{Timestamp: backend.Timestamp{Unix: 1700000000}, Drawdown: -0.01},
			{Timestamp: backend.Timestamp{Unix: 1700003600}, Drawdown: -0.03},
		},
		DrawdownLimits: &backend.DrawdownLimits{Soft: -0.05, Hard: -0.10},
		PLHistory: []backend.PLPoint{
			{Timestamp: backend.Timestamp{Unix: 1700000000}, PLCumulative: -20},
			{Timestamp: backend.Timestamp{Unix: 1700003600}, PLCumulative: 120},
		},
		SymbolPerformance: []backend.SymbolPerformance{
			{Symbol: "EURUSD", PL: 150.5, Trades: 8},
			{Symbol: "GBPUSD", PL: -30, Trades: 5},
		},
	}
}

func TestDrawdown_ReferenceLines(t *testing.T) {
	c := Drawdown(sampleMetrics(), DefaultOptions())

	require.Len(t, c.RefLines, 2)
	assert.Equal(t, -0.05, c.RefLines[0].Value)
	assert.Equal(t, "Soft Limit (-5.0%)", c.RefLines[0].Label)
	assert.Equal(t, "#f1c40f", c.RefLines[0].Color)
	assert.Equal(t, "3 3", c.RefLines[0].Dash)
	assert.Equal(t, -0.10, c.RefLines[1].Value)
	assert.Equal(t, "Hard Limit (-10.0%)", c.RefLines[1].Label)
	assert.Equal(t, "6 2", c.RefLines[1].Dash)

	require.NotNil(t, c.YDomain)
	assert.Equal(t, [2]float64{-0.2, 0}, *c.YDomain)
	assert.True(t, c.PercentTicks)
}

func TestDrawdown_LimitsFallBackWhenAbsentOrZero(t *testing.T) {
	m := sampleMetrics()
	m.DrawdownLimits = nil
	c := Drawdown(m, DefaultOptions())
	assert.Equal(t, -0.05, c.RefLines[0].Value)
	assert.Equal(t, -0.10, c.RefLines[1].Value)

	m.DrawdownLimits = &backend.DrawdownLimits{Soft: 0, Hard: -0.08}
	c = Drawdown(m, DefaultOptions())
	assert.Equal(t, -0.05, c.RefLines[0].Value)
	assert.Equal(t, "Hard Limit (-8.0%)", c.RefLines[1].Label)
}

func TestEquity_TargetLine(t *testing.T) {
	c := Equity(sampleMetrics(), Options{TargetEquity: 12000})

	assert.Equal(t, KindLine, c.Kind)
	assert.Equal(t, []string{"2025-07-26 10:00", "2025-07-26 11:00"}, c.Labels)
	require.Len(t, c.Series, 2)
	assert.Equal(t, "#8884d8", c.Series[0].Color)
	assert.Equal(t, []float64{10000, 10050}, c.Series[1].Values)
	require.Len(t, c.RefLines, 1)
	assert.Equal(t, RefLine{Value: 12000, Color: "#2ecc71", Dash: "5 5", Label: "Target"}, c.RefLines[0])
}

func TestSymbolPerformance_Bars(t *testing.T) {
	c := SymbolPerformance(sampleMetrics())
	assert.Equal(t, KindBar, c.Kind)
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, c.Labels)
	assert.Equal(t, []float64{8, 5}, c.Series[1].Values)
}

func TestBuild_SelectsExactlyOneChart(t *testing.T) {
	for _, typ := range []string{common.ChartEquity, common.ChartDrawdown, common.ChartPL, common.ChartPerformance} {
		c := Build(typ, sampleMetrics(), DefaultOptions())
		require.NotNil(t, c, typ)
		assert.Equal(t, typ, c.Type)
	}
	assert.Nil(t, Build("candles", sampleMetrics(), DefaultOptions()))
}

func TestSVG(t *testing.T) {
	svg, err := SVG(Drawdown(sampleMetrics(), DefaultOptions()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "Soft Limit (-5.0%)")
	assert.Contains(t, svg, "Hard Limit (-10.0%)")
	assert.Contains(t, svg, "-20.0%")
	assert.Contains(t, svg, "stroke-dasharray")

	svg, err = SVG(PL(sampleMetrics()))
	require.NoError(t, err)
	assert.Contains(t, svg, "Cumulative P&amp;L")
	assert.NotContains(t, svg, "P&L")

	svg, err = SVG(SymbolPerformance(sampleMetrics()))
	require.NoError(t, err)
	assert.Contains(t, svg, "EURUSD P&amp;L")
	assert.Contains(t, svg, "GBPUSD Trades")

	_, err = SVG(PL(backend.PerformanceMetrics{}))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSVG_SinglePoint(t *testing.T) {
	m := sampleMetrics()
	m.EquityHistory = m.EquityHistory[:1]

	svg, err := SVG(Equity(m, DefaultOptions()))
	require.NoError(t, err)
	assert.Contains(t, svg, "2025-07-26 10:00")
	assert.Contains(t, svg, "Target")
}

func TestFilter_Query(t *testing.T) {
	q, err := DefaultFilter().Query()
	require.NoError(t, err)
	assert.True(t, q.IsZero())

	q, err = Filter{Symbol: "EURUSD", ChartType: "pl", FromDate: "2023-11-14", ToDate: "2023-11-15"}.Query()
	require.NoError(t, err)
	assert.Equal(t, "?symbol=EURUSD&from_time=1699920000&to_time=1700006400", q.String())

	_, err = Filter{FromDate: "14/11/2023"}.Query()
	assert.Error(t, err)
}

func TestFilterControl_EmitsOncePerChange(t *testing.T) {
	var got []Filter
	fc := NewFilterControl(func(f Filter) { got = append(got, f) })

	assert.Equal(t, DefaultFilter(), fc.Filter())

	fc.SetChartType(common.ChartDrawdown)
	require.Len(t, got, 1)
	assert.Equal(t, Filter{ChartType: common.ChartDrawdown}, got[0])

	fc.SetChartType(common.ChartDrawdown)
	assert.Len(t, got, 1, "unchanged value must not emit")

	fc.SetSymbol("EURUSD")
	fc.SetFromDate("2023-11-14")
	fc.SetToDate("2023-11-15")
	require.Len(t, got, 4)
	assert.Equal(t, Filter{Symbol: "EURUSD", ChartType: common.ChartDrawdown, FromDate: "2023-11-14", ToDate: "2023-11-15"}, got[3])

	fc.Apply(DefaultFilter())
	assert.Len(t, got, 5)
	assert.Equal(t, DefaultFilter(), got[4])
}

func TestFilterControl_ResetThenOneFieldChange(t *testing.T) {
	var got []Filter
	fc := NewFilterControl(func(f Filter) { got = append(got, f) })

	fc.Reset(Filter{ChartType: common.ChartPL, FromDate: "2023-11-14"})
	assert.Empty(t, got, "restoring a filter is not a change")
	assert.Equal(t, common.ChartPL, fc.Filter().ChartType)

	for _, tt := range []struct {
		field, value string
		want         Filter
	}{
		{FieldSymbol, "EURUSD", Filter{Symbol: "EURUSD", ChartType: common.ChartPL, FromDate: "2023-11-14"}},
		{FieldChartType, common.ChartDrawdown, Filter{Symbol: "EURUSD", ChartType: common.ChartDrawdown, FromDate: "2023-11-14"}},
		{FieldFromDate, "", Filter{Symbol: "EURUSD", ChartType: common.ChartDrawdown}},
		{FieldToDate, "2023-11-15", Filter{Symbol: "EURUSD", ChartType: common.ChartDrawdown, ToDate: "2023-11-15"}},
	} {
		before := len(got)
		require.True(t, fc.Set(tt.field, tt.value), tt.field)
		require.Len(t, got, before+1, tt.field)
		assert.Equal(t, tt.want, got[len(got)-1], tt.field)
	}

	assert.False(t, fc.Set("colour", "red"))
	assert.Len(t, got, 4)
}

func TestFilter_ValuesRoundTrip(t *testing.T) {
	f := Filter{Symbol: "EURUSD", ChartType: common.ChartDrawdown, FromDate: "2023-11-14"}
	assert.Equal(t, f, FilterFromValues(f.Values()))
	assert.Equal(t, "chart_type=drawdown&from_date=2023-11-14&symbol=EURUSD&to_date=", f.Values().Encode())

	assert.Equal(t, DefaultFilter(), FilterFromValues(nil))
}

func TestFilterControl_Options(t *testing.T) {
	fc := NewFilterControl(nil)
	fc.SetSymbols([]string{"EURUSD", "GBPUSD"})

	opts := fc.SymbolOptions()
	require.Len(t, opts, 3)
	assert.Equal(t, Option{Value: "", Label: "All symbols"}, opts[0])
	assert.Equal(t, "GBPUSD", opts[2].Value)
	assert.Len(t, fc.ChartTypeOptions(), 4)
}

func TestOrchestrator_EmptyQueryUsesSnapshot(t *testing.T) {
	fetched := false
	o := NewOrchestrator(
		func() feed.Result[backend.PerformanceMetrics] {
			return feed.Result[backend.PerformanceMetrics]{State: feed.Ready, Value: sampleMetrics(), Loaded: true}
		},
		func(context.Context, backend.Query) (backend.PerformanceMetrics, error) {
			fetched = true
			return backend.PerformanceMetrics{}, nil
		},
		0, DefaultOptions())

	v := o.Render(context.Background(), Filter{ChartType: common.ChartDrawdown})
	assert.False(t, fetched, "changing the chart type must not hit the backend")
	require.NotNil(t, v.Chart)
	assert.Equal(t, common.ChartDrawdown, v.Chart.Type)
	assert.Contains(t, v.SVG, "Soft Limit (-5.0%)")
	assert.NotContains(t, v.SVG, "Balance")
	assert.Empty(t, v.Query)
}

func TestOrchestrator_ForwardsQuery(t *testing.T) {
	var gotQuery backend.Query
	o := NewOrchestrator(
		func() feed.Result[backend.PerformanceMetrics] { return feed.Result[backend.PerformanceMetrics]{} },
		func(_ context.Context, q backend.Query) (backend.PerformanceMetrics, error) {
			gotQuery = q
			return sampleMetrics(), nil
		},
		0, DefaultOptions())

	v := o.Render(context.Background(), Filter{Symbol: "EURUSD", ChartType: common.ChartPL})
	assert.Equal(t, "EURUSD", gotQuery.Symbol)
	assert.Equal(t, "?symbol=EURUSD", v.Query)
	require.NotNil(t, v.Chart)
	assert.Equal(t, KindArea, v.Chart.Kind)
}

func TestOrchestrator_States(t *testing.T) {
	pending := NewOrchestrator(
		func() feed.Result[backend.PerformanceMetrics] { return feed.Result[backend.PerformanceMetrics]{} },
		nil, 0, DefaultOptions())
	v := pending.Render(context.Background(), DefaultFilter())
	assert.Equal(t, "Loading charts...", v.Message)
	assert.Nil(t, v.Chart)

	failing := NewOrchestrator(nil,
		func(context.Context, backend.Query) (backend.PerformanceMetrics, error) {
			return backend.PerformanceMetrics{}, errors.New("status 500")
		}, 0, DefaultOptions())
	v = failing.Render(context.Background(), Filter{Symbol: "EURUSD", ChartType: common.ChartEquity})
	assert.Equal(t, feed.Failed, v.State)
	assert.Equal(t, "Failed to load performance_metrics: status 500", v.Message)

	v = pending.Render(context.Background(), Filter{ChartType: common.ChartEquity, ToDate: "tomorrow"})
	assert.Equal(t, feed.Failed, v.State)
	assert.Contains(t, v.Message, "Invalid filter")

	ready := NewOrchestrator(
		func() feed.Result[backend.PerformanceMetrics] {
			return feed.Result[backend.PerformanceMetrics]{State: feed.Ready, Value: sampleMetrics()}
		}, nil, 0, DefaultOptions())
	v = ready.Render(context.Background(), Filter{ChartType: "unknown"})
	assert.Nil(t, v.Chart)
	assert.Empty(t, v.SVG)
	assert.Empty(t, v.Message)

	empty := NewOrchestrator(
		func() feed.Result[backend.PerformanceMetrics] {
			return feed.Result[backend.PerformanceMetrics]{State: feed.Ready}
		}, nil, 0, DefaultOptions())
	v = empty.Render(context.Background(), DefaultFilter())
	assert.Equal(t, "No data", v.Message)
	assert.Empty(t, v.SVG)
}
