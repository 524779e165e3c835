package feed

import "time"

// State is the lifecycle of a fetched resource.
type State int

const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the latest outcome of a fetch. After a failure Value still holds
// the last successful payload when Loaded is set.
type Result[T any] struct {
	State     State
	Value     T
	Err       error
	Loaded    bool
	UpdatedAt time.Time
}
