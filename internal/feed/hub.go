package feed

import (
	"context"
	"fmt"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/cfg"
	"quantum-dashboard/internal/common"
)

// Source is the read side of the backend client.
type Source interface {
	GetLiveStatus(ctx context.Context) (backend.LiveStatus, error)
	GetTradeHistory(ctx context.Context, q backend.Query) ([]backend.Trade, error)
	GetQuantumSignals(ctx context.Context) (backend.QuantumSignals, error)
	GetPerformanceMetrics(ctx context.Context, q backend.Query) (backend.PerformanceMetrics, error)
}

// Hub owns the subscriptions shared by every front-end.
type Hub struct {
	LiveStatus   *Subscription[backend.LiveStatus]
	TradeHistory *Subscription[[]backend.Trade]
	Signals      *Subscription[backend.QuantumSignals]
	Performance  *Subscription[backend.PerformanceMetrics]
}

type subscription interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
	Refresh()
	OnUpdate(fn func(resource string))
}

func NewHub(src Source, refresh cfg.RefreshSettings, timeout time.Duration, observer Observer) *Hub {
	policy := func(resource string) Policy {
		return Policy{Interval: refresh.For(resource), Timeout: timeout}
	}

	return &Hub{
		LiveStatus: NewSubscription(common.ResourceLiveStatus,
			src.GetLiveStatus, policy(common.ResourceLiveStatus), observer),
		TradeHistory: NewSubscription(common.ResourceTradeHistory,
			func(ctx context.Context) ([]backend.Trade, error) {
				return src.GetTradeHistory(ctx, backend.Query{})
			}, policy(common.ResourceTradeHistory), observer),
		Signals: NewSubscription(common.ResourceSignals,
			src.GetQuantumSignals, policy(common.ResourceSignals), observer),
		Performance: NewSubscription(common.ResourcePerformance,
			func(ctx context.Context) (backend.PerformanceMetrics, error) {
				return src.GetPerformanceMetrics(ctx, backend.Query{})
			}, policy(common.ResourcePerformance), observer),
	}
}

func (h *Hub) all() []subscription {
	return []subscription{h.LiveStatus, h.TradeHistory, h.Signals, h.Performance}
}

func (h *Hub) Start(ctx context.Context) error {
	for _, s := range h.all() {
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
	}
	return nil
}

func (h *Hub) Stop() {
	for _, s := range h.all() {
		s.Stop()
	}
}

func (h *Hub) OnUpdate(fn func(resource string)) {
	for _, s := range h.all() {
		s.OnUpdate(fn)
	}
}

// Refresh requests a refetch of the named resource.
func (h *Hub) Refresh(resource string) error {
	for _, s := range h.all() {
		if s.Name() == resource {
			s.Refresh()
			return nil
		}
	}
	return fmt.Errorf("unknown resource %q", resource)
}

func (h *Hub) RefreshAll() {
	for _, s := range h.all() {
		s.Refresh()
	}
}

// States reports the current state of every resource, keyed by name.
func (h *Hub) States() map[string]State {
	return map[string]State{
		common.ResourceLiveStatus:   h.LiveStatus.Snapshot().State,
		common.ResourceTradeHistory: h.TradeHistory.Snapshot().State,
		common.ResourceSignals:      h.Signals.Snapshot().State,
		common.ResourcePerformance:  h.Performance.Snapshot().State,
	}
}
