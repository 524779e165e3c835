package termui

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/cfg"
	"quantum-dashboard/internal/feed"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct{}

func (stubSource) GetLiveStatus(context.Context) (backend.LiveStatus, error) {
	return backend.LiveStatus{
		SymbolsData: map[string]backend.Quote{"EURUSD": {Bid: 1.0851, Ask: 1.0853, Spread: 0.2}},
		OpenPositions: []backend.Position{
			{Ticket: 41, Symbol: "EURUSD", Type: "buy", Volume: 0.5, Profit: 10},
			{Ticket: 42, Symbol: "GBPUSD", Type: "sell", Volume: 1, Profit: -4},
		},
	}, nil
}

func (stubSource) GetTradeHistory(context.Context, backend.Query) ([]backend.Trade, error) {
	return nil, nil
}

func (stubSource) GetQuantumSignals(context.Context) (backend.QuantumSignals, error) {
	return backend.QuantumSignals{"EURUSD": {Signal: "BUY", Trend: "BULLISH"}}, nil
}

func (stubSource) GetPerformanceMetrics(context.Context, backend.Query) (backend.PerformanceMetrics, error) {
	return backend.PerformanceMetrics{WinRate: 55}, nil
}

type stubCloser struct {
	closed []int64
}

func (c *stubCloser) Close(_ context.Context, r backend.CloseRequest) (json.RawMessage, error) {
	c.closed = append(c.closed, r.Ticket)
	return json.RawMessage(`{"success":true}`), nil
}

func startedHub(t *testing.T) *feed.Hub {
	t.Helper()
	hub := feed.NewHub(stubSource{}, cfg.RefreshSettings{}, time.Second, nil)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(hub.Stop)
	require.Eventually(t, func() bool {
		for _, s := range hub.States() {
			if s != feed.Ready {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return hub
}

func press(m tea.Model, key string) (tea.Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	return m.Update(msg)
}

func TestView_RendersWidgets(t *testing.T) {
	m := New(startedHub(t), &stubCloser{}, time.Second)

	view := m.View()
	for _, want := range []string{"Live Status & Ticks", "Open Positions", "EURUSD", "BULLISH", "55.00%", "Recent Events"} {
		assert.Contains(t, view, want)
	}
	assert.Contains(t, view, "No recent notifications")
	assert.Contains(t, view, "Compliance status unavailable")
}

func TestView_PendingPlaceholders(t *testing.T) {
	hub := feed.NewHub(stubSource{}, cfg.RefreshSettings{}, time.Second, nil)
	view := New(hub, &stubCloser{}, time.Second).View()

	assert.Contains(t, view, "Loading positions...")
	assert.Contains(t, view, "Loading signals...")
}

func TestUpdate_SelectAndClose(t *testing.T) {
	closer := &stubCloser{}
	var m tea.Model = New(startedHub(t), closer, time.Second)

	m, _ = press(m, "down")
	m, _ = press(m, "down")
	assert.Equal(t, 1, m.(Model).selected, "selection stops at the last position")

	m, cmd := press(m, "c")
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, []int64{42}, closer.closed)

	m, _ = m.Update(msg)
	assert.True(t, strings.HasPrefix(m.(Model).status, "Close 42"))

	m, _ = press(m, "up")
	m, _ = press(m, "up")
	assert.Equal(t, 0, m.(Model).selected)
}

func TestUpdate_Quit(t *testing.T) {
	m := New(startedHub(t), &stubCloser{}, time.Second)

	_, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestProgram_ReceivesFirstFetches(t *testing.T) {
	hub := feed.NewHub(stubSource{}, cfg.RefreshSettings{}, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewProgram(ctx, hub, &stubCloser{}, time.Second,
		tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer(), tea.WithoutSignalHandler())

	// registered after the program, so a count of 4 means every Send was accepted
	var delivered atomic.Int32
	hub.OnUpdate(func(string) { delivered.Add(1) })

	done := make(chan tea.Model, 1)
	go func() {
		final, err := p.Run()
		assert.NoError(t, err)
		done <- final
	}()

	require.NoError(t, hub.Start(ctx))
	t.Cleanup(hub.Stop)

	require.Eventually(t, func() bool { return delivered.Load() == 4 }, 2*time.Second, 10*time.Millisecond)
	p.Quit()

	select {
	case final := <-done:
		require.IsType(t, Model{}, final)
		assert.Equal(t, 4, final.(Model).updates)
	case <-time.After(2 * time.Second):
		t.Fatal("program did not quit")
	}
}
