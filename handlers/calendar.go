package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"prophecal/internal/auth"
	"prophecal/models"
	"prophecal/services/calendar"
)

// maxICSUploadBytes bounds uploaded calendar payloads.
const maxICSUploadBytes = 2 << 20

// CalendarHandler serves the calendar ingestion and listing endpoints.
type CalendarHandler struct {
	LookaheadDays int
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(lookaheadDays int) *CalendarHandler {
	return &CalendarHandler{LookaheadDays: lookaheadDays}
}

// EventResponse is one calendar event annotated with scheduling state.
type EventResponse struct {
	ID              string              `json:"id"`
	Event           models.Event        `json:"event"`
	DaysUntil       int                 `json:"daysUntil"`
	DetailsComplete bool                `json:"detailsComplete"`
	Details         models.EventDetails `json:"details"`
}

// LoadResponse reports the outcome of a calendar load.
type LoadResponse struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Upload replaces the session's event set with the uploaded ICS payload.
func (h *CalendarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = "upload"
	}

	body := http.MaxBytesReader(w, r.Body, maxICSUploadBytes)
	events, err := state.Calendar.Load(body, source)
	if err != nil {
		var perr *models.ParseError
		if errors.As(err, &perr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "calendar could not be parsed"})
			return
		}
		http.Error(w, `{"error": "failed to load calendar"}`, http.StatusInternalServerError)
		return
	}

	state.Log.LogCalendarLoad(source, len(events))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoadResponse{Source: source, Count: len(events)})
}

// LoadSample loads one of the built-in demo calendars, dated relative to the
// session's current simulated date.
func (h *CalendarHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = calendar.SampleDefault
	}

	events, err := state.Calendar.LoadSample(name, state.Timeline.CurrentDate())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown sample calendar: " + name})
		return
	}

	state.Log.LogCalendarLoad("sample:"+name, len(events))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoadResponse{Source: "sample:" + name, Count: len(events)})
}

// Events returns the upcoming events inside the lookahead window, each
// annotated with days-until and the details collected so far.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	days := h.LookaheadDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 && parsed <= h.LookaheadDays {
			days = parsed
		}
	}

	upcoming := state.Timeline.UpcomingEvents(state.Calendar.Events(), days)
	result := make([]EventResponse, 0, len(upcoming))
	for _, e := range upcoming {
		id := e.ID()
		result = append(result, EventResponse{
			ID:              id,
			Event:           e,
			DaysUntil:       state.Timeline.DaysUntilEvent(e),
			DetailsComplete: state.Details.Complete(id),
			Details:         state.Details.Get(id),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"events": result,
		"total":  len(result),
		"days":   days,
	})
}
