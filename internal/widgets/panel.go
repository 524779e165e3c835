// Package widgets turns subscription results into view models shared by the
// web page and the terminal UI.
package widgets

import (
	"fmt"

	"quantum-dashboard/internal/feed"
)

// Panel is the rendered state of one widget. When Message is set the panel
// shows it instead of Table/Items.
type Panel struct {
	Name     string
	Title    string
	Resource string
	State    feed.State
	Message  string
	Table    *Table
	Items    []Item
}

type Table struct {
	Columns []string
	Rows    []Row
}

// Row is one table line; Key identifies the underlying record (ticket or symbol).
type Row struct {
	Key   string
	Cells []string
	Class string
}

type Item struct {
	Label string
	Value string
	Class string
}

func (p Panel) HasMessage() bool {
	return p.Message != ""
}

func (p Panel) Failed() bool {
	return p.State == feed.Failed
}

// gate fills the placeholder for a result that cannot be displayed yet.
// It returns false when the caller should build the panel body.
func gate[T any](p *Panel, res feed.Result[T], pending string) bool {
	p.State = res.State
	switch res.State {
	case feed.Pending:
		p.Message = pending
		return true
	case feed.Failed:
		p.Message = FailureMessage(p.Resource, res.Err)
		return true
	}
	return false
}

func FailureMessage(resource string, err error) string {
	return fmt.Sprintf("Failed to load %s: %v", resource, err)
}
