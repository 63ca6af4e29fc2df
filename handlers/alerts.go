package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"prophecal/internal/auth"
	"prophecal/models"
	"prophecal/services/timeline"
)

// AlertsHandler serves the alert review endpoints.
type AlertsHandler struct {
	Offsets []int
}

// NewAlertsHandler creates a new AlertsHandler firing at the given
// days-before offsets.
func NewAlertsHandler(offsets []int) *AlertsHandler {
	return &AlertsHandler{Offsets: offsets}
}

// AlertResponse is one due alert with the details collected so far.
type AlertResponse struct {
	EventID    string              `json:"eventId"`
	Event      models.Event        `json:"event"`
	DaysBefore int                 `json:"daysBefore"`
	Details    models.EventDetails `json:"details"`
	Complete   bool                `json:"complete"`
}

// List returns the due, unacknowledged alerts for the current date.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	due := state.Timeline.DueAlerts(state.Calendar.Events(), h.Offsets)
	result := make([]AlertResponse, 0, len(due))
	for _, a := range due {
		id := a.Event.ID()
		result = append(result, AlertResponse{
			EventID:    id,
			Event:      a.Event,
			DaysBefore: a.DaysBefore,
			Details:    state.Details.Get(id),
			Complete:   state.Details.Complete(id),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"alerts": result,
		"total":  len(result),
	})
}

// Acknowledge marks one (event, offset) alert as reviewed so it stops
// appearing. Acknowledgements survive clock changes until a reset.
func (h *AlertsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	var req timeline.AckKey
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.EventID == "" {
		http.Error(w, `{"error": "eventId is required"}`, http.StatusBadRequest)
		return
	}

	state.Timeline.Acknowledge(req.EventID, req.DaysBefore)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "acknowledged"})
}

// Check runs the issue checker for one event and returns its advisories.
// Results are memoized per trip plan, so repeated checks are free.
func (h *AlertsHandler) Check(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	eventID := mux.Vars(r)["eventID"]
	event, ok := state.Calendar.Find(eventID)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "event not found"})
		return
	}

	merged := state.Details.Merged(event)
	issues := state.Issues.CheckForIssues(r.Context(), merged)
	if issues == nil {
		issues = []models.Issue{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"eventId": eventID,
		"issues":  issues,
		"mode":    state.Issues.Mode(),
	})
}
