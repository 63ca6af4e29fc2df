package auth

import (
	"net/http"

	"prophecal/internal/app"
	"prophecal/models"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeySession is the key for the session in the context
	ContextKeySession ContextKey = "session"
	// ContextKeyState is the key for the session's service bundle in the context
	ContextKeyState ContextKey = "state"
)

// GetSession retrieves the authenticated session from the request context.
func GetSession(r *http.Request) (models.Session, bool) {
	session, ok := r.Context().Value(ContextKeySession).(models.Session)
	return session, ok
}

// GetState retrieves the session's service bundle from the request context.
// Returns nil on requests that did not pass the auth middleware.
func GetState(r *http.Request) *app.State {
	if state, ok := r.Context().Value(ContextKeyState).(*app.State); ok {
		return state
	}
	return nil
}
