package widgets

import (
	"sort"
	"strconv"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/common"
	"quantum-dashboard/internal/feed"
)

// Widget names, also used as fragment routes.
const (
	NameStatus        = "status"
	NamePositions     = "positions"
	NameHistory       = "history"
	NameSignals       = "signals"
	NameMetrics       = "metrics"
	NameCompliance    = "compliance"
	NameNotifications = "notifications"
)

// Names lists every widget in page order.
var Names = []string{
	NameStatus, NamePositions, NameHistory, NameSignals,
	NameMetrics, NameCompliance, NameNotifications,
}

// ResourceOf returns the resource a widget is rendered from.
func ResourceOf(name string) (string, bool) {
	switch name {
	case NameStatus, NamePositions, NameCompliance, NameNotifications:
		return common.ResourceLiveStatus, true
	case NameHistory:
		return common.ResourceTradeHistory, true
	case NameSignals:
		return common.ResourceSignals, true
	case NameMetrics:
		return common.ResourcePerformance, true
	}
	return "", false
}

func Status(res feed.Result[backend.LiveStatus]) Panel {
	p := Panel{Name: NameStatus, Title: "Quotes", Resource: common.ResourceLiveStatus}
	if gate(&p, res, "Loading...") {
		return p
	}

	quotes := res.Value.SymbolsData
	if len(quotes) == 0 {
		p.Message = "No quotes available"
		return p
	}

	symbols := make([]string, 0, len(quotes))
	for s := range quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	t := &Table{Columns: []string{"Symbol", "Bid", "Ask", "Spread"}}
	for _, s := range symbols {
		q := quotes[s]
		t.Rows = append(t.Rows, Row{
			Key:   s,
			Cells: []string{s, Number(q.Bid), Number(q.Ask), Number(q.Spread)},
		})
	}
	p.Table = t
	return p
}

func Positions(res feed.Result[backend.LiveStatus]) Panel {
	p := Panel{Name: NamePositions, Title: "Open Positions", Resource: common.ResourceLiveStatus}
	if gate(&p, res, "Loading positions...") {
		return p
	}
	if len(res.Value.OpenPositions) == 0 {
		p.Message = "No open positions"
		return p
	}

	t := &Table{Columns: []string{
		"Ticket", "Symbol", "Type", "Volume", "Open Price", "Current Price", "P&L", "SL", "TP",
	}}
	for _, pos := range res.Value.OpenPositions {
		t.Rows = append(t.Rows, Row{
			Key: strconv.FormatInt(pos.Ticket, 10),
			Cells: []string{
				strconv.FormatInt(pos.Ticket, 10),
				pos.Symbol,
				pos.Type,
				Number(pos.Volume),
				Number(pos.PriceOpen),
				Number(pos.PriceCurrent),
				Money(pos.Profit),
				Number(pos.SL),
				Number(pos.TP),
			},
			Class: signClass(pos.Profit),
		})
	}
	p.Table = t
	return p
}

func History(res feed.Result[[]backend.Trade]) Panel {
	p := Panel{Name: NameHistory, Title: "Trade History", Resource: common.ResourceTradeHistory}
	if gate(&p, res, "Loading trade history...") {
		return p
	}
	if len(res.Value) == 0 {
		p.Message = "No trade history"
		return p
	}

	t := &Table{Columns: []string{"Ticket", "Symbol", "Type", "Volume", "Price", "P&L", "Date", "Comment"}}
	for _, tr := range res.Value {
		t.Rows = append(t.Rows, Row{
			Key: strconv.FormatInt(tr.Ticket, 10),
			Cells: []string{
				strconv.FormatInt(tr.Ticket, 10),
				tr.Symbol,
				tr.Type,
				Number(tr.Volume),
				Number(tr.Price),
				Money(tr.Profit),
				Date(tr.Time),
				tr.Comment,
			},
			Class: signClass(tr.Profit),
		})
	}
	p.Table = t
	return p
}

func Signals(res feed.Result[backend.QuantumSignals]) Panel {
	p := Panel{Name: NameSignals, Title: "Quantum Signals", Resource: common.ResourceSignals}
	if gate(&p, res, "Loading signals...") {
		return p
	}
	if len(res.Value) == 0 {
		p.Message = "No quantum signals"
		return p
	}

	symbols := make([]string, 0, len(res.Value))
	for s := range res.Value {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	t := &Table{Columns: []string{
		"Symbol", "Entropy", "Spin", "Confidence", "Trend", "Volatility", "Signal", "Price", "Timestamp",
	}}
	for _, sym := range symbols {
		s := res.Value[sym]
		t.Rows = append(t.Rows, Row{
			Key: sym,
			Cells: []string{
				sym,
				Number(s.Entropia),
				Number(s.Spin),
				Number(s.Confidence),
				s.Trend,
				Number(s.Volatility),
				s.Signal,
				Number(s.Price),
				Date(s.Timestamp),
			},
		})
	}
	p.Table = t
	return p
}

func Metrics(res feed.Result[backend.PerformanceMetrics]) Panel {
	p := Panel{Name: NameMetrics, Title: "Performance Metrics", Resource: common.ResourcePerformance}
	if gate(&p, res, "Loading metrics...") {
		return p
	}

	m := res.Value
	profitFactor := "n/a"
	if m.ProfitFactor != nil {
		profitFactor = Number(*m.ProfitFactor)
	}

	p.Items = []Item{
		{Label: "Win Rate", Value: Percent(m.WinRate)},
		{Label: "Profit Factor", Value: profitFactor},
		{Label: "Trades", Value: strconv.Itoa(m.NumTrades)},
		{Label: "Daily Trades", Value: strconv.Itoa(m.DailyTrades)},
		{Label: "Max Drawdown", Value: Number(m.MaxDrawdown)},
		{Label: "Total Profit", Value: Money(m.TotalProfit), Class: signClass(m.TotalProfit)},
		{Label: "Current Risk", Value: Number(m.CurrentRisk)},
		{Label: "Max Risk", Value: Number(m.MaxRisk)},
	}
	return p
}

func Compliance(res feed.Result[backend.LiveStatus]) Panel {
	p := Panel{Name: NameCompliance, Title: "Challenge & Compliance", Resource: common.ResourceLiveStatus}
	if gate(&p, res, "Loading compliance status...") {
		return p
	}

	c := res.Value.ComplianceStatus
	if c == nil {
		p.Message = "Compliance status unavailable"
		return p
	}

	target, targetClass := "no", ""
	if c.TargetReached {
		target, targetClass = "yes", "profit"
	}
	warning, warningClass := "OK", ""
	if c.Warning {
		warning, warningClass = "WARNING", "warning"
	}

	p.Items = []Item{
		{Label: "Target reached", Value: target, Class: targetClass},
		{Label: "Drawdown", Value: Raw(c.Drawdown)},
		{Label: "Limits", Value: Raw(c.Limits)},
		{Label: "Warning", Value: warning, Class: warningClass},
	}
	return p
}

func Notifications(res feed.Result[backend.LiveStatus]) Panel {
	p := Panel{Name: NameNotifications, Title: "Recent Events", Resource: common.ResourceLiveStatus}
	if gate(&p, res, "Loading notifications...") {
		return p
	}
	if len(res.Value.Notifications) == 0 {
		p.Message = "No recent notifications"
		return p
	}

	for _, n := range res.Value.Notifications {
		p.Items = append(p.Items, Item{Label: Date(n.Timestamp), Value: n.Message})
	}
	return p
}
