package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"prophecal/internal/auth"
)

// TravelHandler serves the mocked travel-time projection.
type TravelHandler struct{}

// NewTravelHandler creates a new TravelHandler.
func NewTravelHandler() *TravelHandler {
	return &TravelHandler{}
}

// Estimate returns a door-to-door projection for a trip.
func (h *TravelHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	destination := strings.TrimSpace(q.Get("destination"))
	if destination == "" {
		http.Error(w, `{"error": "destination is required"}`, http.StatusBadRequest)
		return
	}
	origin := strings.TrimSpace(q.Get("origin"))
	arrival := strings.TrimSpace(q.Get("arrival"))

	estimate := state.Issues.TravelEstimate(origin, destination, arrival)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(estimate)
}
