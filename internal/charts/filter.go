// Package charts builds the time-series charts of the dashboard and the filter
// that selects them.
package charts

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/common"
)

const dateLayout = "2006-01-02"

// Form keys of the filter fields.
const (
	FieldSymbol    = "symbol"
	FieldChartType = "chart_type"
	FieldFromDate  = "from_date"
	FieldToDate    = "to_date"
)

// Filter is the chart selection. Dates are YYYY-MM-DD; empty means unbounded.
type Filter struct {
	Symbol    string `json:"symbol"`
	ChartType string `json:"chartType"`
	FromDate  string `json:"fromDate"`
	ToDate    string `json:"toDate"`
}

func DefaultFilter() Filter {
	return Filter{ChartType: common.ChartEquity}
}

// Query converts the filter to backend parameters. Dates become UTC midnight
// in unix seconds.
func (f Filter) Query() (backend.Query, error) {
	q := backend.Query{Symbol: f.Symbol}
	var err error
	if q.FromTime, err = dateToUnix(f.FromDate); err != nil {
		return backend.Query{}, fmt.Errorf("from date: %w", err)
	}
	if q.ToTime, err = dateToUnix(f.ToDate); err != nil {
		return backend.Query{}, fmt.Errorf("to date: %w", err)
	}
	return q, nil
}

// Values encodes the filter with the same keys Set accepts.
func (f Filter) Values() url.Values {
	return url.Values{
		FieldSymbol:    {f.Symbol},
		FieldChartType: {f.ChartType},
		FieldFromDate:  {f.FromDate},
		FieldToDate:    {f.ToDate},
	}
}

// FilterFromValues is the inverse of Filter.Values. A missing chart type
// falls back to the default one.
func FilterFromValues(v url.Values) Filter {
	f := Filter{
		Symbol:    v.Get(FieldSymbol),
		ChartType: v.Get(FieldChartType),
		FromDate:  v.Get(FieldFromDate),
		ToDate:    v.Get(FieldToDate),
	}
	if f.ChartType == "" {
		f.ChartType = DefaultFilter().ChartType
	}
	return f
}

func dateToUnix(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

type Option struct {
	Value string
	Label string
}

var chartTypeOptions = []Option{
	{Value: common.ChartEquity, Label: "Equity / Balance"},
	{Value: common.ChartDrawdown, Label: "Drawdown"},
	{Value: common.ChartPL, Label: "Cumulative P&L"},
	{Value: common.ChartPerformance, Label: "Performance by Symbol"},
}

// FilterControl holds the current filter and reports every change to the
// parent. It never talks to the backend.
type FilterControl struct {
	mu       sync.Mutex
	filter   Filter
	symbols  []string
	onChange func(Filter)
}

func NewFilterControl(onChange func(Filter)) *FilterControl {
	return &FilterControl{filter: DefaultFilter(), onChange: onChange}
}

func (c *FilterControl) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetSymbols replaces the symbols offered by the dropdown.
func (c *FilterControl) SetSymbols(symbols []string) {
	c.mu.Lock()
	c.symbols = append([]string(nil), symbols...)
	c.mu.Unlock()
}

func (c *FilterControl) SymbolOptions() []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	opts := make([]Option, 0, len(c.symbols)+1)
	opts = append(opts, Option{Value: "", Label: "All symbols"})
	for _, s := range c.symbols {
		opts = append(opts, Option{Value: s, Label: s})
	}
	return opts
}

func (c *FilterControl) ChartTypeOptions() []Option {
	return append([]Option(nil), chartTypeOptions...)
}

func (c *FilterControl) SetSymbol(v string) {
	c.update(func(f *Filter) { f.Symbol = v })
}

func (c *FilterControl) SetChartType(v string) {
	c.update(func(f *Filter) { f.ChartType = v })
}

func (c *FilterControl) SetFromDate(v string) {
	c.update(func(f *Filter) { f.FromDate = v })
}

func (c *FilterControl) SetToDate(v string) {
	c.update(func(f *Filter) { f.ToDate = v })
}

// Reset restores a previously reported filter without reporting it again.
func (c *FilterControl) Reset(f Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// Set changes the field named by its form key ("symbol", "chart_type",
// "from_date" or "to_date"). It reports false for an unknown key.
func (c *FilterControl) Set(field, value string) bool {
	switch field {
	case FieldSymbol:
		c.SetSymbol(value)
	case FieldChartType:
		c.SetChartType(value)
	case FieldFromDate:
		c.SetFromDate(value)
	case FieldToDate:
		c.SetToDate(value)
	default:
		return false
	}
	return true
}

// Apply replaces every field at once and reports a single change, if any.
func (c *FilterControl) Apply(next Filter) {
	c.update(func(f *Filter) { *f = next })
}

func (c *FilterControl) update(mutate func(*Filter)) {
	c.mu.Lock()
	next := c.filter
	mutate(&next)
	if next == c.filter {
		c.mu.Unlock()
		return
	}
	c.filter = next
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(next)
	}
}
