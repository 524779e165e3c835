package dashboard

import (
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"time"

	"quantum-dashboard/internal/charts"
	"quantum-dashboard/internal/widgets"

	"github.com/rs/zerolog/log"
)

type resourceView struct {
	Name  string
	State string
}

type sectionView struct {
	ID       string
	Heading  string
	Resource string
	Panel    widgets.Panel
}

type chartsView struct {
	View             charts.View
	FilterQuery      string
	SVG              template.HTML
	SymbolOptions    []charts.Option
	ChartTypeOptions []charts.Option
}

type entryView struct {
	Time    string
	Action  string
	Outcome string
	ID      string
	Detail  string
}

type ordersView struct {
	LastResult string
	Entries    []entryView
	Symbols    []string
}

type pageView struct {
	Resources     []resourceView
	Status        widgets.Panel
	Positions     widgets.Panel
	History       widgets.Panel
	Signals       widgets.Panel
	Metrics       widgets.Panel
	Compliance    widgets.Panel
	Notifications widgets.Panel
	Charts        chartsView
	Orders        ordersView
}

var templateFuncs = template.FuncMap{
	"section": func(id, heading, resource string, p widgets.Panel) sectionView {
		return sectionView{ID: id, Heading: heading, Resource: resource, Panel: p}
	},
}

// panel renders one widget from the current subscription snapshots.
func (s *Server) panel(name string) (widgets.Panel, bool) {
	switch name {
	case widgets.NameStatus:
		return widgets.Status(s.hub.LiveStatus.Snapshot()), true
	case widgets.NamePositions:
		return widgets.Positions(s.hub.LiveStatus.Snapshot()), true
	case widgets.NameCompliance:
		return widgets.Compliance(s.hub.LiveStatus.Snapshot()), true
	case widgets.NameNotifications:
		return widgets.Notifications(s.hub.LiveStatus.Snapshot()), true
	case widgets.NameHistory:
		return widgets.History(s.hub.TradeHistory.Snapshot()), true
	case widgets.NameSignals:
		return widgets.Signals(s.hub.Signals.Snapshot()), true
	case widgets.NameMetrics:
		return widgets.Metrics(s.hub.Performance.Snapshot()), true
	}
	return widgets.Panel{}, false
}

func (s *Server) symbols() []string {
	return s.hub.LiveStatus.Snapshot().Value.Symbols
}

// chartFilter rebuilds the filter a page is showing from the request query,
// then applies at most one field change named by "set" and "value". Each page
// carries its own filter; nothing is kept on the server.
func chartFilter(q url.Values, symbols []string) *charts.FilterControl {
	fc := charts.NewFilterControl(func(f charts.Filter) {
		log.Debug().
			Str("symbol", f.Symbol).
			Str("chartType", f.ChartType).
			Str("from", f.FromDate).
			Str("to", f.ToDate).
			Msg("Chart filter changed")
	})
	fc.SetSymbols(symbols)
	fc.Reset(charts.FilterFromValues(q))

	if field := q.Get("set"); field != "" && !fc.Set(field, q.Get("value")) {
		log.Warn().Str("field", field).Msg("Unknown chart filter field")
	}
	return fc
}

func (s *Server) chartsView(r *http.Request) chartsView {
	fc := chartFilter(r.URL.Query(), s.symbols())
	filter := fc.Filter()
	v := s.orchestrator.Render(r.Context(), filter)
	return chartsView{
		View:             v,
		FilterQuery:      filter.Values().Encode(),
		SVG:              template.HTML(v.SVG), // rendered by charts.SVG, labels escaped
		SymbolOptions:    fc.SymbolOptions(),
		ChartTypeOptions: fc.ChartTypeOptions(),
	}
}

func (s *Server) ordersView() ordersView {
	v := ordersView{Symbols: s.symbols()}
	if last := s.orders.LastResult(); last != nil {
		v.LastResult = string(last)
	}
	for _, e := range s.orders.Entries() {
		detail := e.Err
		if detail == "" {
			detail = string(e.Response)
		}
		v.Entries = append(v.Entries, entryView{
			Time:    e.Time.In(widgets.Location).Format(time.DateTime),
			Action:  e.Action,
			Outcome: e.Outcome,
			ID:      e.ID,
			Detail:  detail,
		})
	}
	return v
}

func (s *Server) resources() []resourceView {
	states := s.hub.States()
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]resourceView, 0, len(names))
	for _, name := range names {
		out = append(out, resourceView{Name: name, State: states[name].String()})
	}
	return out
}

func (s *Server) pageView(r *http.Request) pageView {
	v := pageView{
		Resources: s.resources(),
		Charts:    s.chartsView(r),
		Orders:    s.ordersView(),
	}
	v.Status, _ = s.panel(widgets.NameStatus)
	v.Positions, _ = s.panel(widgets.NamePositions)
	v.History, _ = s.panel(widgets.NameHistory)
	v.Signals, _ = s.panel(widgets.NameSignals)
	v.Metrics, _ = s.panel(widgets.NameMetrics)
	v.Compliance, _ = s.panel(widgets.NameCompliance)
	v.Notifications, _ = s.panel(widgets.NameNotifications)
	return v
}
