package charts

import (
	"fmt"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/common"
	"quantum-dashboard/internal/widgets"
)

type Kind string

const (
	KindLine Kind = "line"
	KindArea Kind = "area"
	KindBar  Kind = "bar"
)

type Series struct {
	Key    string
	Name   string
	Color  string
	Values []float64
}

// RefLine is a horizontal reference at Value.
type RefLine struct {
	Value float64
	Color string
	Dash  string
	Label string
}

// Chart is a renderer-independent description of one chart.
type Chart struct {
	Type     string
	Title    string
	Kind     Kind
	Labels   []string
	Series   []Series
	RefLines []RefLine
	// YDomain fixes the y axis when set; otherwise it fits the data.
	YDomain      *[2]float64
	PercentTicks bool
}

func (c *Chart) Empty() bool {
	return len(c.Labels) == 0
}

// Options carries the configured fallbacks for values the backend may omit.
type Options struct {
	TargetEquity float64
	SoftLimit    float64
	HardLimit    float64
}

func DefaultOptions() Options {
	return Options{
		TargetEquity: common.DefaultTargetEquity,
		SoftLimit:    common.DefaultDrawdownSoftLimit,
		HardLimit:    common.DefaultDrawdownHardLimit,
	}
}

// Build returns the chart for chartType, or nil for an unknown type.
func Build(chartType string, m backend.PerformanceMetrics, opts Options) *Chart {
	switch chartType {
	case common.ChartEquity:
		return Equity(m, opts)
	case common.ChartDrawdown:
		return Drawdown(m, opts)
	case common.ChartPL:
		return PL(m)
	case common.ChartPerformance:
		return SymbolPerformance(m)
	default:
		return nil
	}
}

func Equity(m backend.PerformanceMetrics, opts Options) *Chart {
	c := &Chart{Type: common.ChartEquity, Title: "Equity / Balance", Kind: KindLine}
	equity := Series{Key: "equity", Name: "Equity", Color: "#8884d8"}
	balance := Series{Key: "balance", Name: "Balance", Color: "#82ca9d"}
	for _, p := range m.EquityHistory {
		c.Labels = append(c.Labels, widgets.Date(p.Timestamp))
		equity.Values = append(equity.Values, p.Equity)
		balance.Values = append(balance.Values, p.Balance)
	}
	c.Series = []Series{equity, balance}
	c.RefLines = []RefLine{{Value: opts.TargetEquity, Color: "#2ecc71", Dash: "5 5", Label: "Target"}}
	return c
}

func Drawdown(m backend.PerformanceMetrics, opts Options) *Chart {
	soft, hard := opts.SoftLimit, opts.HardLimit
	if m.DrawdownLimits != nil {
		if m.DrawdownLimits.Soft != 0 {
			soft = m.DrawdownLimits.Soft
		}
		if m.DrawdownLimits.Hard != 0 {
			hard = m.DrawdownLimits.Hard
		}
	}

	c := &Chart{
		Type:         common.ChartDrawdown,
		Title:        "Drawdown",
		Kind:         KindLine,
		YDomain:      &[2]float64{common.DefaultDrawdownDomainFloor, 0},
		PercentTicks: true,
	}
	dd := Series{Key: "drawdown", Name: "Drawdown", Color: "#e74c3c"}
	for _, p := range m.DrawdownHistory {
		c.Labels = append(c.Labels, widgets.Date(p.Timestamp))
		dd.Values = append(dd.Values, p.Drawdown)
	}
	c.Series = []Series{dd}
	c.RefLines = []RefLine{
		{Value: soft, Color: "#f1c40f", Dash: "3 3", Label: LimitLabel("Soft Limit", soft)},
		{Value: hard, Color: "#c0392b", Dash: "6 2", Label: LimitLabel("Hard Limit", hard)},
	}
	return c
}

// LimitLabel formats a fractional limit as "<name> (-5.0%)".
func LimitLabel(name string, limit float64) string {
	return fmt.Sprintf("%s (%.1f%%)", name, limit*100)
}

func PL(m backend.PerformanceMetrics) *Chart {
	c := &Chart{Type: common.ChartPL, Title: "Cumulative P&L", Kind: KindArea}
	pl := Series{Key: "pl_cumulative", Name: "Cumulative P&L", Color: "#27ae60"}
	for _, p := range m.PLHistory {
		c.Labels = append(c.Labels, widgets.Date(p.Timestamp))
		pl.Values = append(pl.Values, p.PLCumulative)
	}
	c.Series = []Series{pl}
	return c
}

func SymbolPerformance(m backend.PerformanceMetrics) *Chart {
	c := &Chart{Type: common.ChartPerformance, Title: "Performance by Symbol", Kind: KindBar}
	pl := Series{Key: "pl", Name: "P&L", Color: "#2980b9"}
	trades := Series{Key: "trades", Name: "Trades", Color: "#8e44ad"}
	for _, p := range m.SymbolPerformance {
		c.Labels = append(c.Labels, p.Symbol)
		pl.Values = append(pl.Values, p.PL)
		trades.Values = append(trades.Values, float64(p.Trades))
	}
	c.Series = []Series{pl, trades}
	return c
}
