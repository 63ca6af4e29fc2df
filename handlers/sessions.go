package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"prophecal/api"
	"prophecal/services/sessions"
)

// SessionsHandler handles session lifecycle endpoints.
type SessionsHandler struct {
	sessions *sessions.Service
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(sessionsSvc *sessions.Service) *SessionsHandler {
	return &SessionsHandler{sessions: sessionsSvc}
}

// SessionResponse is the payload returned on session creation.
type SessionResponse struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	ExpiresAt string `json:"expiresAt"`
}

// Create starts a new session with a fresh, isolated service bundle.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Header.Get("User-Agent"))
	if err != nil {
		http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SessionResponse{
		Token:     session.Token,
		Name:      session.Name,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Revoke ends the current session and discards its state.
func (h *SessionsHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := api.BearerToken(r)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		http.Error(w, `{"error": "no session token"}`, http.StatusBadRequest)
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Not found is fine, the session may already be expired.
		if err != sessions.ErrSessionNotFound {
			http.Error(w, `{"error": "failed to revoke session"}`, http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "session ended"})
}
