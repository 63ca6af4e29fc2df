package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"prophecal/internal/auth"
	"prophecal/models"
	"prophecal/services/details"
)

// DetailsHandler serves the detail-collection endpoints.
type DetailsHandler struct{}

// NewDetailsHandler creates a new DetailsHandler.
func NewDetailsHandler() *DetailsHandler {
	return &DetailsHandler{}
}

// QuestionsResponse carries the remaining questions for an event along with
// what has been collected so far.
type QuestionsResponse struct {
	EventID        string                 `json:"eventId"`
	Questions      []details.Question     `json:"questions"`
	Details        models.EventDetails    `json:"details"`
	Complete       bool                   `json:"complete"`
	TransportModes []models.TransportMode `json:"transportModes"`
}

// Questions returns the ordered questions still needed for one event.
func (h *DetailsHandler) Questions(w http.ResponseWriter, r *http.Request) {
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
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QuestionsResponse{
		EventID:        eventID,
		Questions:      details.Questions(merged),
		Details:        merged.Details,
		Complete:       merged.Details.Complete(),
		TransportModes: models.TransportModes(),
	})
}

// UpdateRequest sets one detail field from a raw operator response.
type UpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Update normalizes and stores one answer. Time answers are repaired where
// possible; an answer that is still not a valid time is rejected with 422
// and the stored details are left untouched.
func (h *DetailsHandler) Update(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	eventID := mux.Vars(r)["eventID"]
	if _, ok := state.Calendar.Find(eventID); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "event not found"})
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	updated, err := state.Details.SetField(eventID, req.Field, req.Value)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case errors.Is(err, details.ErrInvalidTimeFormat):
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "time must be H:MM or HH:MM"})
		case errors.Is(err, details.ErrInvalidTransportMode):
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "unknown transport mode"})
		case errors.Is(err, details.ErrUnknownField):
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "unknown field: " + req.Field})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "failed to update details"})
		}
		return
	}

	state.Log.Info("details updated for %q: %s", eventID, req.Field)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"eventId":  eventID,
		"details":  updated,
		"complete": updated.Complete(),
	})
}
