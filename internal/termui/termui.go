// Package termui renders the dashboard widgets in the terminal.
package termui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quantum-dashboard/internal/backend"
	"quantum-dashboard/internal/feed"
	"quantum-dashboard/internal/widgets"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#764ba2")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#dc3545")
	successColor   = lipgloss.Color("#28a745")
	warningColor   = lipgloss.Color("#ffc107")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(secondaryColor).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#222222")).Bold(true)
	placeholder   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Padding(0, 1)
)

// Closer closes a position by ticket.
type Closer interface {
	Close(ctx context.Context, r backend.CloseRequest) (json.RawMessage, error)
}

type updateMsg string

type closedMsg struct {
	ticket int64
	result json.RawMessage
	err    error
}

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	hub     *feed.Hub
	closer  Closer
	timeout time.Duration

	selected int
	status   string
	width    int
	updates  int
}

func New(hub *feed.Hub, closer Closer, timeout time.Duration) Model {
	return Model{hub: hub, closer: closer, timeout: timeout, width: 120}
}

// NewProgram builds the terminal program and subscribes it to hub updates.
// It must be called before hub.Start so the first fetches reach the screen.
func NewProgram(ctx context.Context, hub *feed.Hub, closer Closer, timeout time.Duration, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(hub, closer, timeout), opts...)
	hub.OnUpdate(func(resource string) { p.Send(updateMsg(resource)) })
	return p
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, p *tea.Program) error {
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) positions() []backend.Position {
	return m.hub.LiveStatus.Snapshot().Value.OpenPositions
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up":
			m.selected = max(0, m.selected-1)
		case "down":
			m.selected = min(max(len(m.positions())-1, 0), m.selected+1)
		case "r":
			m.hub.RefreshAll()
			m.status = "Refreshing..."
		case "c":
			positions := m.positions()
			if m.selected >= len(positions) {
				return m, nil
			}
			ticket := positions[m.selected].Ticket
			m.status = fmt.Sprintf("Closing %d...", ticket)
			return m, m.closeCmd(ticket)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case updateMsg:
		m.updates++
		if n := len(m.positions()); m.selected >= n {
			m.selected = max(0, n-1)
		}

	case closedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Close %d failed: %v", msg.ticket, msg.err)
		} else {
			m.status = fmt.Sprintf("Close %d: %s", msg.ticket, msg.result)
		}
	}

	return m, nil
}

func (m Model) closeCmd(ticket int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}
		res, err := m.closer.Close(ctx, backend.CloseRequest{Ticket: ticket})
		return closedMsg{ticket: ticket, result: res, err: err}
	}
}

func (m Model) View() string {
	live := m.hub.LiveStatus.Snapshot()

	sections := []string{
		titleStyle.Render("Quantum Trading Dashboard"),
		renderPanel("Live Status & Ticks", widgets.Status(live), -1),
		renderPanel("Open Positions", widgets.Positions(live), m.selected),
		renderPanel("Quantum Signals", widgets.Signals(m.hub.Signals.Snapshot()), -1),
		lipgloss.JoinHorizontal(lipgloss.Top,
			renderPanel("Performance Metrics", widgets.Metrics(m.hub.Performance.Snapshot()), -1),
			renderPanel("Compliance & Targets", widgets.Compliance(live), -1),
		),
		renderPanel("Recent Events", widgets.Notifications(live), -1),
	}
	if m.status != "" {
		sections = append(sections, m.status)
	}
	sections = append(sections, footerStyle.Render(
		fmt.Sprintf("Keys: ↑/↓ select position, c close, r refresh, q quit · %d updates", m.updates)))

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderPanel draws a widget; selected highlights a table row, -1 for none.
func renderPanel(heading string, p widgets.Panel, selected int) string {
	var body string
	switch {
	case p.HasMessage():
		style := placeholder
		if p.Failed() {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		body = style.Render(p.Message)
	case p.Table != nil:
		body = renderTable(p.Table, selected)
	default:
		body = renderItems(p.Items)
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(heading), body))
}

func renderTable(t *widgets.Table, selected int) string {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range t.Rows {
		for i, cell := range r.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	line := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				padded[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			}
		}
		return strings.Join(padded, "  ")
	}

	var b strings.Builder
	b.WriteString("  " + lipgloss.NewStyle().Bold(true).Render(line(t.Columns)))
	for i, r := range t.Rows {
		text := line(r.Cells)
		switch r.Class {
		case "profit":
			text = lipgloss.NewStyle().Foreground(successColor).Render(text)
		case "loss":
			text = lipgloss.NewStyle().Foreground(errorColor).Render(text)
		}
		prefix := "  "
		if i == selected {
			prefix = "> "
			text = selectedStyle.Render(text)
		}
		b.WriteString("\n" + prefix + text)
	}
	return b.String()
}

func renderItems(items []widgets.Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		value := it.Value
		switch it.Class {
		case "profit":
			value = lipgloss.NewStyle().Foreground(successColor).Render(value)
		case "loss":
			value = lipgloss.NewStyle().Foreground(errorColor).Render(value)
		case "warning":
			value = lipgloss.NewStyle().Foreground(warningColor).Bold(true).Render(value)
		}
		if it.Label == "" {
			lines = append(lines, "  "+value)
			continue
		}
		lines = append(lines, "  "+it.Label+": "+value)
	}
	return strings.Join(lines, "\n")
}
