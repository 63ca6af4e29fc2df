package calendar

import (
	"errors"
	"strings"
	"testing"
	"time"

	"prophecal/models"
)

const testICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
UID:2@test
DTSTART:20250320T140000Z
DTEND:20250320T160000Z
SUMMARY:Later Meeting
LOCATION:Main Office
END:VEVENT
BEGIN:VEVENT
UID:1@test
DTSTART:20250315T090000Z
SUMMARY:Early Meeting
DESCRIPTION:Kickoff
END:VEVENT
BEGIN:VEVENT
UID:3@test
DTSTART;VALUE=DATE:20250318
SUMMARY:All Day Offsite
END:VEVENT
END:VCALENDAR
`

func TestLoad_ParsesAndSortsEvents(t *testing.T) {
	svc := New()
	events, err := svc.Load(strings.NewReader(testICS), "test.ics")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	// Ascending by start regardless of file order.
	want := []string{"Early Meeting", "All Day Offsite", "Later Meeting"}
	for i, name := range want {
		if events[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, events[i].Name)
		}
	}

	early := events[0]
	if early.Description != "Kickoff" {
		t.Errorf("expected description carried over, got %q", early.Description)
	}
	if early.Location != "" {
		t.Errorf("expected empty location, got %q", early.Location)
	}
	if !early.End.IsZero() {
		t.Errorf("expected zero end for event without DTEND, got %v", early.End)
	}

	later := events[2]
	if later.Location != "Main Office" {
		t.Errorf("expected location, got %q", later.Location)
	}
	if later.End.Sub(later.Start) != 2*time.Hour {
		t.Errorf("expected 2h duration, got %v", later.End.Sub(later.Start))
	}
}

func TestLoad_DateOnlyNormalizedToMidnight(t *testing.T) {
	svc := New()
	events, err := svc.Load(strings.NewReader(testICS), "test.ics")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	allDay := events[1]
	if allDay.Name != "All Day Offsite" {
		t.Fatalf("unexpected event order: %v", events)
	}
	h, m, s := allDay.Start.Clock()
	if h != 0 || m != 0 || s != 0 {
		t.Errorf("expected midnight start for date-only event, got %v", allDay.Start)
	}
	if allDay.Start.Day() != 18 {
		t.Errorf("expected day 18, got %v", allDay.Start)
	}
}

func TestLoad_MalformedInputFails(t *testing.T) {
	svc := New()
	if _, err := svc.Load(strings.NewReader(testICS), "good.ics"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	_, err := svc.Load(strings.NewReader("not a calendar"), "bad.ics")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *models.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *models.ParseError, got %T", err)
	}
	if perr.Source != "bad.ics" {
		t.Errorf("expected source carried in error, got %q", perr.Source)
	}

	// Previous set survives a failed load.
	if svc.Count() != 3 {
		t.Errorf("expected previous events kept after failed load, got %d", svc.Count())
	}
}

func TestLoad_ReplacesWholeSet(t *testing.T) {
	svc := New()
	if _, err := svc.Load(strings.NewReader(testICS), "first.ics"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events, err := svc.LoadSample(SampleDefault, base)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 sample events, got %d", len(events))
	}
	if svc.Count() != 4 {
		t.Errorf("expected old events replaced, got %d", svc.Count())
	}
	if svc.Source() != "sample calendar" {
		t.Errorf("unexpected source %q", svc.Source())
	}
}

func TestLoadSample_OffsetsAndMissingLocations(t *testing.T) {
	svc := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events, err := svc.LoadSample(SampleDefault, base)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}

	offsets := []int{5, 10, 15, 20}
	for i, e := range events {
		want := base.AddDate(0, 0, offsets[i])
		if !e.StartDay().Equal(want) {
			t.Errorf("event %q: expected start day %v, got %v", e.Name, want, e.StartDay())
		}
		if e.Location != "" {
			t.Errorf("event %q: default sample should omit locations", e.Name)
		}
	}

	if _, err := svc.LoadSample("bogus", base); err == nil {
		t.Error("expected error for unknown sample name")
	}
}

func TestFind_ByIdentity(t *testing.T) {
	svc := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events, err := svc.LoadSample(SampleTravel, base)
	if err != nil {
		t.Fatalf("LoadSample failed: %v", err)
	}

	got, ok := svc.Find(events[0].ID())
	if !ok || got.Name != events[0].Name {
		t.Fatalf("expected to find %q, got %v ok=%v", events[0].Name, got, ok)
	}
	if _, ok := svc.Find("nope_2025-01-01T00:00:00Z"); ok {
		t.Error("expected miss for unknown identity")
	}
}
