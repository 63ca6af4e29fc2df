package models

import (
	"time"
)

// Event is a single parsed calendar event. Events are immutable once parsed;
// loading a new calendar replaces the whole set.
type Event struct {
	Name        string    `json:"name"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end,omitzero"` // zero when the event has no DTEND
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// ID returns the event identity used for detail records, acknowledgments and
// API routing. There is no surrogate key: two events with the same name and
// start time are indistinguishable.
func (e Event) ID() string {
	return e.Name + "_" + e.Start.Format(time.RFC3339)
}

// StartDay returns the event start truncated to day granularity.
func (e Event) StartDay() time.Time {
	return Midnight(e.Start)
}

// Midnight truncates t to midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EventWithDetails is an event merged with its user-supplied trip details.
// Detail fields take precedence over the base event where both carry a value.
type EventWithDetails struct {
	Event   Event
	Details EventDetails
}

// Location returns the detail location when provided, the base event location
// otherwise.
func (ed EventWithDetails) Location() string {
	if ed.Details.Location != "" {
		return ed.Details.Location
	}
	return ed.Event.Location
}
