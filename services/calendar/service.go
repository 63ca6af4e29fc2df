package calendar

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"

	"prophecal/models"
)

// Service is the per-session event store: the ordered set of parsed calendar
// events. Loading a calendar replaces the whole set; events are never mutated
// after parsing.
type Service struct {
	mu       sync.RWMutex
	events   []models.Event
	source   string
	loadedAt time.Time
}

// New creates an empty event store.
func New() *Service {
	return &Service{}
}

// Load parses an iCalendar stream and replaces the stored event set. On a
// parse failure the previous set is kept and a models.ParseError wrapping the
// underlying cause is returned.
func (s *Service) Load(r io.Reader, source string) ([]models.Event, error) {
	events, err := parseICS(r)
	if err != nil {
		return nil, &models.ParseError{Source: source, Err: err}
	}

	s.mu.Lock()
	s.events = events
	s.source = source
	s.loadedAt = time.Now()
	s.mu.Unlock()

	log.Printf("[calendar] loaded %d events from %q", len(events), source)
	return events, nil
}

// Events returns a copy of the stored event set, ascending by start with
// start-less events last.
func (s *Service) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Find looks up an event by its identity.
func (s *Service) Find(eventID string) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID() == eventID {
			return e, true
		}
	}
	return models.Event{}, false
}

// Count returns the number of loaded events.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Source returns the name of the most recently loaded calendar.
func (s *Service) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// parseICS extracts VEVENT components from an iCalendar stream. Date-only
// starts and ends come back normalized to midnight.
func parseICS(r io.Reader) ([]models.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	// Ascending by start; events without a start sort last.
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Start, events[j].Start
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (models.Event, error) {
	ev := models.Event{Name: "Untitled Event"}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		ev.Name = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && p.Value != "" {
		start, err := eventTime(ve.GetStartAt, ve.GetAllDayStartAt)
		if err != nil {
			return models.Event{}, fmt.Errorf("event %q: bad DTSTART: %w", ev.Name, err)
		}
		ev.Start = start
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil && p.Value != "" {
		end, err := eventTime(ve.GetEndAt, ve.GetAllDayEndAt)
		if err != nil {
			return models.Event{}, fmt.Errorf("event %q: bad DTEND: %w", ev.Name, err)
		}
		ev.End = end
	}
	return ev, nil
}

// eventTime resolves a DTSTART/DTEND value, falling back to the all-day
// accessor for VALUE=DATE properties, which the date-time accessor rejects.
// All-day values land at midnight.
func eventTime(get, getAllDay func() (time.Time, error)) (time.Time, error) {
	t, err := get()
	if err == nil {
		return t, nil
	}
	if t, allDayErr := getAllDay(); allDayErr == nil {
		return t, nil
	}
	return time.Time{}, err
}
