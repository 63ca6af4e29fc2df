package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"prophecal/internal/auth"
)

// TimelineHandler serves the simulated clock endpoints.
type TimelineHandler struct{}

// NewTimelineHandler creates a new TimelineHandler.
func NewTimelineHandler() *TimelineHandler {
	return &TimelineHandler{}
}

// TimelineResponse describes the session's clock state.
type TimelineResponse struct {
	CurrentDate string `json:"currentDate"`
	DemoMode    bool   `json:"demoMode"`
}

func (h *TimelineHandler) respond(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TimelineResponse{
		CurrentDate: state.Timeline.CurrentDate().Format("2006-01-02"),
		DemoMode:    state.Timeline.DemoMode(),
	})
}

// Get returns the current simulated date and demo-mode flag.
func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	if auth.GetState(r) == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}
	h.respond(w, r)
}

// Advance moves the simulated clock forward. Outside demo mode it has no
// effect and the unchanged state is returned.
func (h *TimelineHandler) Advance(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	state.Timeline.AdvanceDays(req.Days)
	state.Log.Info("timeline advanced %d day(s) to %s", req.Days, state.Timeline.CurrentDate().Format("2006-01-02"))
	h.respond(w, r)
}

// SetDate jumps the simulated clock to a specific day.
func (h *TimelineHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, `{"error": "date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	state.Timeline.SetDate(day)
	h.respond(w, r)
}

// Reset snaps the clock back to the real current date and clears every
// alert acknowledgement.
func (h *TimelineHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	state.Timeline.Reset()
	state.Log.Info("timeline reset")
	h.respond(w, r)
}

// SetDemoMode toggles the simulated clock on or off.
func (h *TimelineHandler) SetDemoMode(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	state.Timeline.SetDemoMode(req.Enabled)
	h.respond(w, r)
}
