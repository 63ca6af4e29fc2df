package timeline

import (
	"sort"
	"sync"
	"time"

	"prophecal/models"
)

// AckKey identifies one surfaced alert: an event identity plus the trigger
// offset (days before start) it fired at. The 7-day and 1-day alerts for the
// same event are independent keys.
type AckKey struct {
	EventID    string `json:"eventId"`
	DaysBefore int    `json:"daysBefore"`
}

// Alert is a due (event, trigger offset) pair awaiting operator review.
type Alert struct {
	Event      models.Event `json:"event"`
	DaysBefore int          `json:"daysBefore"`
}

// Service is the simulated clock plus the alert scheduler built on top of it.
// It is the single time source for every other component in a session. Dates
// are held at day granularity (midnight, time-of-day zeroed).
type Service struct {
	mu       sync.RWMutex
	current  time.Time
	demoMode bool
	acked    map[AckKey]struct{}

	now func() time.Time // wall clock, injectable for tests
}

// New creates a timeline tracking the real clock, frozen once demo mode is on.
func New(demoMode bool) *Service {
	return NewWithClock(demoMode, time.Now)
}

// NewWithClock creates a timeline with an injectable wall clock.
func NewWithClock(demoMode bool, now func() time.Time) *Service {
	return &Service{
		current:  models.Midnight(now()),
		demoMode: demoMode,
		acked:    make(map[AckKey]struct{}),
		now:      now,
	}
}

// CurrentDate returns the date every other computation runs against: the
// stored simulated date in demo mode, the real current date otherwise.
func (s *Service) CurrentDate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.demoMode {
		return models.Midnight(s.now())
	}
	return s.current
}

// AdvanceDays shifts the simulated date forward by n days. It has no effect
// when demo mode is off. Advancing by more than one day can step over a
// trigger boundary entirely; alerts between the old and new date are skipped,
// which matches the fires-once design of EventsNeedingAlert.
func (s *Service) AdvanceDays(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.demoMode {
		return
	}
	s.current = s.current.AddDate(0, 0, n)
}

// SetDate pins the simulated date to the given day (time-of-day dropped).
func (s *Service) SetDate(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = models.Midnight(t)
}

// Reset snaps the simulated date back to the real current date regardless of
// mode and clears all acknowledgments. The two must move together: resetting
// the clock alone would leave acknowledgments suppressing alerts the operator
// has not reviewed at the new date.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = models.Midnight(s.now())
	s.acked = make(map[AckKey]struct{})
}

// SetDemoMode toggles operator control of the clock. Turning demo mode off
// snaps the date back to the real current date immediately; turning it on
// leaves the stored date unchanged until the next advance.
func (s *Service) SetDemoMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoMode = enabled
	if !enabled {
		s.current = models.Midnight(s.now())
	}
}

// DemoMode reports whether the clock is operator-controlled.
func (s *Service) DemoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demoMode
}

// UpcomingEvents returns events with current ≤ start ≤ current+daysAhead,
// inclusive on both ends, ascending by start. The bounds compare calendar
// dates, not instants, so an event stored in another zone lands in the same
// window its day difference reports.
func (s *Service) UpcomingEvents(events []models.Event, daysAhead int) []models.Event {
	now := s.CurrentDate()

	var upcoming []models.Event
	for _, e := range events {
		if e.Start.IsZero() {
			continue
		}
		days := daysBetween(e.StartDay(), now)
		if days >= 0 && days <= daysAhead {
			upcoming = append(upcoming, e)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})
	return upcoming
}

// EventsNeedingAlert returns events whose start date, truncated to day
// granularity, falls exactly daysBefore days after the current date. This is
// an exact match, not a range: each event crosses each trigger boundary once
// as the clock advances day by day.
func (s *Service) EventsNeedingAlert(events []models.Event, daysBefore int) []models.Event {
	current := s.CurrentDate()

	var due []models.Event
	for _, e := range events {
		if e.Start.IsZero() {
			continue
		}
		// Calendar dates, not instants: an event parsed in another zone must
		// still match the trigger its day difference reports.
		if daysBetween(e.StartDay(), current) == daysBefore {
			due = append(due, e)
		}
	}
	return due
}

// DaysUntilEvent returns the whole-day difference between the event start and
// the current date. Negative for events in the past.
func (s *Service) DaysUntilEvent(e models.Event) int {
	return daysBetween(e.StartDay(), s.CurrentDate())
}

// DueAlerts returns the not-yet-acknowledged (event, offset) pairs for the
// given trigger offsets, in offset order.
func (s *Service) DueAlerts(events []models.Event, offsets []int) []Alert {
	var alerts []Alert
	for _, daysBefore := range offsets {
		for _, e := range s.EventsNeedingAlert(events, daysBefore) {
			if s.IsAcknowledged(e.ID(), daysBefore) {
				continue
			}
			alerts = append(alerts, Alert{Event: e, DaysBefore: daysBefore})
		}
	}
	return alerts
}

// Acknowledge records that the operator has reviewed the alert for one
// specific trigger offset. The set grows monotonically until Reset.
func (s *Service) Acknowledge(eventID string, daysBefore int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked[AckKey{EventID: eventID, DaysBefore: daysBefore}] = struct{}{}
}

// IsAcknowledged reports whether the alert for this exact (event, offset)
// pair has already been reviewed.
func (s *Service) IsAcknowledged(eventID string, daysBefore int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.acked[AckKey{EventID: eventID, DaysBefore: daysBefore}]
	return ok
}

// AcknowledgedCount returns how many alerts have been reviewed this session.
func (s *Service) AcknowledgedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.acked)
}

// daysBetween computes whole days from b to a, comparing calendar dates so a
// DST transition between them cannot skew the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(au.Sub(bu) / (24 * time.Hour))
}
