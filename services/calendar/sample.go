package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"prophecal/models"
)

// Built-in sample calendar names accepted by LoadSample.
const (
	SampleDefault = "sample"
	SampleTravel  = "travel"
)

type sampleEvent struct {
	name        string
	daysOffset  int
	duration    time.Duration
	description string
	location    string
}

var sampleEvents = map[string][]sampleEvent{
	SampleDefault: {
		{name: "Team Meeting", daysOffset: 5, duration: 2 * time.Hour, description: "Weekly team sync"},
		{name: "Client Presentation", daysOffset: 10, duration: 3 * time.Hour, description: "Q4 results presentation"},
		{name: "Conference", daysOffset: 15, duration: 8 * time.Hour, description: "Annual tech conference"},
		{name: "Workshop", daysOffset: 20, duration: 4 * time.Hour, description: "AI/ML workshop"},
	},
	SampleTravel: {
		{name: "Airport Pickup", daysOffset: 2, duration: time.Hour, description: "Pick up visiting team", location: "Central Airport, Arrivals Hall"},
		{name: "Museum Tour", daysOffset: 7, duration: 3 * time.Hour, description: "Guided exhibition tour"},
		{name: "Dinner Reservation", daysOffset: 7, duration: 2 * time.Hour, description: "Table for six"},
	},
}

// LoadSample builds one of the built-in demo calendars relative to the given
// base date and loads it through the same parse path as an upload. The
// default sample deliberately omits locations so detail collection has
// something to ask about.
func (s *Service) LoadSample(name string, base time.Time) ([]models.Event, error) {
	if name == "" {
		name = SampleDefault
	}
	defs, ok := sampleEvents[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample calendar %q", name)
	}
	ics := buildSampleICS(defs, models.Midnight(base))
	return s.Load(strings.NewReader(ics), name+" calendar")
}

// SampleNames lists the built-in calendars.
func SampleNames() []string {
	return []string{SampleDefault, SampleTravel}
}

func buildSampleICS(defs []sampleEvent, base time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId("-//Prophetic Calendar//EN")
	cal.SetMethod(ical.MethodPublish)

	for _, def := range defs {
		ev := cal.AddEvent(uuid.NewString())
		ev.SetDtStampTime(base)
		ev.SetSummary(def.name)
		ev.SetDescription(def.description)
		ev.SetStartAt(base.AddDate(0, 0, def.daysOffset))
		ev.SetEndAt(base.AddDate(0, 0, def.daysOffset).Add(def.duration))
		if def.location != "" {
			ev.SetLocation(def.location)
		}
	}
	return cal.Serialize()
}
