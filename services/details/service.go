package details

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"prophecal/models"
)

// Detail field names as they appear in prompts and API payloads.
const (
	FieldLocation      = "location"
	FieldArrivalTime   = "arrival_time"
	FieldDepartureTime = "departure_time"
	FieldTransportMode = "transport_mode"
)

var (
	// ErrInvalidTimeFormat is returned when a time answer does not normalize
	// to HH:MM. It is a field-level validation failure: the surrounding
	// workflow continues and the invalid value is never stored.
	ErrInvalidTimeFormat = errors.New("invalid time format, use HH:MM (e.g. 09:30 or 14:30)")

	// ErrUnknownField is returned for a field name outside the detail schema.
	ErrUnknownField = errors.New("unknown detail field")

	// ErrInvalidTransportMode is returned when a transport answer is not one
	// of the closed choices.
	ErrInvalidTransportMode = errors.New("invalid transport mode")
)

// timePattern accepts H:MM or HH:MM with hour 0-23 and minute 0-59.
var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Question is one prompt for a missing detail field.
type Question struct {
	Field  string `json:"field"`
	Prompt string `json:"prompt"`
}

// Service owns the per-session detail store plus the question and response
// logic that fills it. Records are created lazily and never deleted during a
// session.
type Service struct {
	mu    sync.RWMutex
	store map[string]models.EventDetails
}

// New creates an empty detail store.
func New() *Service {
	return &Service{store: make(map[string]models.EventDetails)}
}

// Get returns the detail record for an event identity. The zero record is
// returned when nothing has been collected yet.
func (s *Service) Get(eventID string) models.EventDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store[eventID]
}

// Merged returns the event combined with whatever details are known for it.
func (s *Service) Merged(e models.Event) models.EventWithDetails {
	return models.EventWithDetails{Event: e, Details: s.Get(e.ID())}
}

// Complete reports whether location, arrival and departure have all been
// collected for the event.
func (s *Service) Complete(eventID string) bool {
	return s.Get(eventID).Complete()
}

// SetField normalizes and stores one answered field. Time answers go through
// ParseResponse; transport answers must be one of the closed choices. On any
// validation error nothing is stored.
func (s *Service) SetField(eventID, field, raw string) (models.EventDetails, error) {
	value, err := ParseResponse(raw, field)
	if err != nil {
		return models.EventDetails{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.store[eventID]
	switch field {
	case FieldLocation:
		d.Location = value
	case FieldArrivalTime:
		d.ArrivalTime = value
	case FieldDepartureTime:
		d.DepartureTime = value
	case FieldTransportMode:
		mode := models.TransportMode(value)
		if !mode.Valid() {
			return models.EventDetails{}, ErrInvalidTransportMode
		}
		d.TransportMode = mode
	default:
		return models.EventDetails{}, ErrUnknownField
	}
	s.store[eventID] = d
	return d, nil
}

// Questions produces one prompt per missing field, in a fixed order. An empty
// result means the record is complete and callers must not re-prompt.
// Transport mode is not prompted here: it is a closed-choice selection the
// presentation layer surfaces on its own.
func Questions(ed models.EventWithDetails) []Question {
	var qs []Question
	name := ed.Event.Name

	if ed.Location() == "" {
		qs = append(qs, Question{
			Field:  FieldLocation,
			Prompt: "Where will the event '" + name + "' take place?",
		})
	}
	if ed.Details.ArrivalTime == "" {
		qs = append(qs, Question{
			Field:  FieldArrivalTime,
			Prompt: "What time do you need to arrive for '" + name + "'? (HH:MM format)",
		})
	}
	if ed.Details.DepartureTime == "" {
		qs = append(qs, Question{
			Field:  FieldDepartureTime,
			Prompt: "What time do you plan to depart for '" + name + "'? (HH:MM format)",
		})
	}
	return qs
}

// ParseResponse validates and normalizes a raw answer for the given field.
// Non-time fields pass through trimmed. Time fields must normalize to HH:MM
// (hour 0-23, minute 0-59) after a best-effort repair: a 3- or 4-digit answer
// without a colon gets one inserted before the last two digits, so "930"
// becomes "9:30" and "1430" becomes "14:30". Single-digit hours are kept as
// typed, never zero-padded.
func ParseResponse(raw, field string) (string, error) {
	v := strings.TrimSpace(raw)

	if field != FieldArrivalTime && field != FieldDepartureTime {
		return v, nil
	}

	if timePattern.MatchString(v) {
		return v, nil
	}
	if !strings.Contains(v, ":") && (len(v) == 3 || len(v) == 4) {
		repaired := v[:len(v)-2] + ":" + v[len(v)-2:]
		if timePattern.MatchString(repaired) {
			return repaired, nil
		}
	}
	return "", ErrInvalidTimeFormat
}
