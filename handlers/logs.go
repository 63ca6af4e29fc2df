package handlers

import (
	"encoding/json"
	"net/http"

	"prophecal/internal/auth"
)

// LogsHandler exposes the session's operation-log digest.
type LogsHandler struct{}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler() *LogsHandler {
	return &LogsHandler{}
}

// Summary returns the running counts for the current session: logged events,
// external-service calls, and token usage.
func (h *LogsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	state := auth.GetState(r)
	if state == nil {
		http.Error(w, `{"error": "session state unavailable"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state.Log.SessionSummary())
}
