package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 720
	chartHeight = 320
	maxXLabels  = 8
	barWidth    = 40
)

// ErrNoData is returned by SVG for a chart without points.
var ErrNoData = errors.New("no chart data")

// SVG renders c with the go-chart vector renderer. The canvas writes text
// nodes verbatim, so every label is escaped before it is handed over.
func SVG(c *Chart) (string, error) {
	if c.Empty() {
		return "", ErrNoData
	}

	var buf bytes.Buffer
	var err error
	if c.Kind == KindBar {
		err = barChart(c).Render(chart.SVG, &buf)
	} else {
		graph := lineChart(c)
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
		err = graph.Render(chart.SVG, &buf)
	}
	if err != nil {
		return "", fmt.Errorf("render %s chart: %w", c.Type, err)
	}
	return buf.String(), nil
}

func lineChart(c *Chart) chart.Chart {
	xs := make([]float64, len(c.Labels))
	for i := range xs {
		xs[i] = float64(i)
	}
	xMax := math.Max(float64(len(c.Labels)-1), 1)
	lo, hi := yRange(c)

	graph := chart.Chart{
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 10, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{Ticks: xTicks(c.Labels)},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: tickFormatter(c.PercentTicks),
		},
	}

	for _, s := range c.Series {
		style := chart.Style{StrokeColor: color(s.Color), StrokeWidth: 2}
		if c.Kind == KindArea {
			style.FillColor = color(s.Color).WithAlpha(77)
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    html.EscapeString(s.Name),
			Style:   style,
			XValues: xs[:len(s.Values)],
			YValues: s.Values,
		})
	}

	for _, r := range c.RefLines {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name: html.EscapeString(r.Label),
			Style: chart.Style{
				StrokeColor:     color(r.Color),
				StrokeWidth:     1.5,
				StrokeDashArray: dashArray(r.Dash),
			},
			XValues: []float64{0, xMax},
			YValues: []float64{r.Value, r.Value},
		})
	}
	return graph
}

// barChart lays the series of each label side by side, "<label> <series>".
func barChart(c *Chart) chart.BarChart {
	lo, hi := yRange(c)
	bc := chart.BarChart{
		Width:        chartWidth,
		Height:       chartHeight,
		Background:   chart.Style{Padding: chart.Box{Top: 20, Left: 10, Right: 20, Bottom: 10}},
		BarWidth:     barWidth,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: tickFormatter(c.PercentTicks),
		},
	}

	for i, label := range c.Labels {
		for _, s := range c.Series {
			if i >= len(s.Values) {
				continue
			}
			col := color(s.Color)
			bc.Bars = append(bc.Bars, chart.Value{
				Label: html.EscapeString(label + " " + s.Name),
				Value: s.Values[i],
				Style: chart.Style{FillColor: col, StrokeColor: col},
			})
		}
	}
	return bc
}

// yRange is the fixed domain when set, otherwise the data and reference
// lines plus 5% padding. Area and bar charts always include zero.
func yRange(c *Chart) (float64, float64) {
	if c.YDomain != nil {
		return c.YDomain[0], c.YDomain[1]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	extend := func(v float64) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, s := range c.Series {
		for _, v := range s.Values {
			extend(v)
		}
	}
	for _, r := range c.RefLines {
		extend(r.Value)
	}
	if c.Kind != KindLine {
		extend(0)
	}
	if lo == hi {
		lo--
		hi++
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// xTicks labels at most maxXLabels slots, always including the first and last.
// A single point gets a blank second tick so the x range is never empty.
func xTicks(labels []string) []chart.Tick {
	n := len(labels)
	step := 1
	if n > maxXLabels {
		step = (n + maxXLabels - 1) / maxXLabels
	}

	ticks := make([]chart.Tick, 0, maxXLabels+2)
	for i := 0; i < n; i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: html.EscapeString(labels[i])})
	}
	if last := float64(n - 1); ticks[len(ticks)-1].Value != last {
		ticks = append(ticks, chart.Tick{Value: last, Label: html.EscapeString(labels[n-1])})
	}
	if n == 1 {
		ticks = append(ticks, chart.Tick{Value: 1})
	}
	return ticks
}

func tickFormatter(percent bool) chart.ValueFormatter {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return html.EscapeString(fmt.Sprint(v))
		}
		if percent {
			return strconv.FormatFloat(f*100, 'f', 1, 64) + "%"
		}
		return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
	}
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(hex)
}

// dashArray parses an SVG dash pattern such as "5 5".
func dashArray(dash string) []float64 {
	var out []float64
	for _, f := range strings.Fields(dash) {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}
