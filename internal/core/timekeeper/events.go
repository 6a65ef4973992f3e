package timekeeper

import (
	"time"

	"zentimer/internal/core/model"
)

// EventType defines the type of Keeper event.
type EventType string

const (
	// EventCreated reports a record minted for a newly parsed line.
	EventCreated EventType = "created"
	// EventStateChange reports any mutation of a record by an action,
	// a text edit, a restore or a zero-crossing.
	EventStateChange EventType = "state_change"
	// EventProgress reports the once-per-second display refresh of a
	// running or overtime record. The record itself is unchanged.
	EventProgress EventType = "progress"
	// EventRemoved reports a record deleted because its line went away.
	EventRemoved EventType = "removed"
	// EventAlarm reports the shared alarm switching on or off.
	EventAlarm EventType = "alarm"
)

// Event represents a Keeper update for observers.
type Event struct {
	Type      EventType
	ID        string
	Status    model.Status
	Remaining time.Duration
	Overtime  time.Duration
	// Badge is the number of unacknowledged overtime records after the update.
	Badge    int
	Sounding bool
	At       time.Time
}
