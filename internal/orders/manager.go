// Package orders issues operator actions (new order, modify, close) against the
// backend and keeps a short in-memory log of them.
package orders

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/common"

	"github.com/rs/zerolog/log"
)

// Writer is the write side of the backend client.
type Writer interface {
	SendOrder(ctx context.Context, o backend.OrderRequest) (json.RawMessage, error)
	ModifyOrder(ctx context.Context, m backend.ModifyRequest) (json.RawMessage, error)
	CloseOrder(ctx context.Context, c backend.CloseRequest) (json.RawMessage, error)
}

// Refresher re-fetches a resource after a write changed it.
type Refresher interface {
	Refresh(resource string) error
}

// MetricsInterface defines the metrics reported per action
type MetricsInterface interface {
	OrderActionObserve(action, outcome string, seconds float64)
}

// Outcomes reported to metrics
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Entry records one issued action.
type Entry struct {
	ID       string
	Action   string
	Request  any
	Response json.RawMessage
	Err      string
	Outcome  string
	Time     time.Time
}

type Manager struct {
	mu        sync.RWMutex
	writer    Writer
	refresher Refresher
	metrics   MetricsInterface
	entries   []Entry
	limit     int
	last      json.RawMessage
}

func NewManager(writer Writer, refresher Refresher, limit int) *Manager {
	if limit <= 0 {
		limit = common.DefaultActionLogSize
	}
	return &Manager{writer: writer, refresher: refresher, limit: limit}
}

// SetMetrics sets the metrics interface for reporting
func (m *Manager) SetMetrics(metrics MetricsInterface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// Send submits a new order with the form values unchanged. On success the
// response becomes the last result shown under the form.
func (m *Manager) Send(ctx context.Context, o backend.OrderRequest) (json.RawMessage, error) {
	res, err := m.do(ctx, common.ActionSend, o, func(ctx context.Context) (json.RawMessage, error) {
		return m.writer.SendOrder(ctx, o)
	})
	if err == nil {
		m.mu.Lock()
		m.last = res
		m.mu.Unlock()
	}
	return res, err
}

func (m *Manager) Modify(ctx context.Context, r backend.ModifyRequest) (json.RawMessage, error) {
	return m.do(ctx, common.ActionModify, r, func(ctx context.Context) (json.RawMessage, error) {
		return m.writer.ModifyOrder(ctx, r)
	})
}

func (m *Manager) Close(ctx context.Context, r backend.CloseRequest) (json.RawMessage, error) {
	return m.do(ctx, common.ActionClose, r, func(ctx context.Context) (json.RawMessage, error) {
		return m.writer.CloseOrder(ctx, r)
	})
}

// LastResult returns the response of the last successful submission, or nil.
func (m *Manager) LastResult() json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Entries returns the action log, newest first.
func (m *Manager) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		out[len(m.entries)-1-i] = e
	}
	return out
}

func (m *Manager) do(ctx context.Context, action string, req any,
	call func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	id := backend.RequestIDFrom(ctx)
	ctx = backend.WithRequestID(ctx, id)

	start := time.Now()
	res, err := call(ctx)
	elapsed := time.Since(start)

	entry := Entry{ID: id, Action: action, Request: req, Response: res, Time: start}
	switch {
	case err != nil:
		entry.Outcome = OutcomeError
		entry.Err = err.Error()
		log.Error().Err(err).Str("action", action).Str("requestId", id).Msg("Order action failed")
	case rejected(res):
		entry.Outcome = OutcomeRejected
		log.Warn().Str("action", action).Str("requestId", id).RawJSON("response", res).Msg("Order action rejected")
	default:
		entry.Outcome = OutcomeAccepted
		log.Info().Str("action", action).Str("requestId", id).Dur("elapsed", elapsed).Msg("Order action accepted")
	}

	m.mu.Lock()
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
	metrics := m.metrics
	m.mu.Unlock()

	if metrics != nil {
		metrics.OrderActionObserve(action, entry.Outcome, elapsed.Seconds())
	}

	if err != nil {
		return nil, err
	}

	if m.refresher != nil {
		if rerr := m.refresher.Refresh(common.ResourceLiveStatus); rerr != nil {
			log.Warn().Err(rerr).Msg("Failed to refresh live status after order action")
		}
	}
	return res, nil
}

// rejected reports whether the backend answered {"success": false}.
func rejected(res json.RawMessage) bool {
	var body struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(res, &body); err != nil {
		return false
	}
	return body.Success != nil && !*body.Success
}
