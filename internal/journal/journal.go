// Package journal
package journal

import (
	"context"
	"time"
)

// Event represents a journaled pipeline event.
type Event struct {
	RunID       string
	Time        time.Time
	Type        string // e.g., "backtest", "compare", "error"
	Description string
	Data        map[string]any
}

// Journaler interface for journaling events. Satisfied by the db storage
// implementations.
type Journaler interface {
	LogEvent(ctx context.Context, event Event) error
	GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]Event, error)
}
