package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"prophecal/api"
	"prophecal/internal/config"
	"prophecal/services/sessions"
)

// RegisterRoutes attaches every API endpoint to the router. Session creation
// is the only anonymous endpoint besides /health; everything else goes
// through the session-auth middleware.
func RegisterRoutes(r *mux.Router, sessionsSvc *sessions.Service, cfg *config.Config) {
	sessionsHandler := NewSessionsHandler(sessionsSvc)
	calendarHandler := NewCalendarHandler(cfg.LookaheadDays)
	timelineHandler := NewTimelineHandler()
	detailsHandler := NewDetailsHandler()
	alertsHandler := NewAlertsHandler(cfg.AlertOffsets)
	travelHandler := NewTravelHandler()
	logsHandler := NewLogsHandler()

	// 10 new sessions per minute per client.
	createLimiter := api.NewIPRateLimiter(rate.Every(6*time.Second), 10)
	r.HandleFunc("/api/sessions", api.RateLimitHandlerFunc(createLimiter, sessionsHandler.Create)).
		Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/sessions", sessionsHandler.Revoke).
		Methods(http.MethodDelete)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(api.SessionAuthMiddleware(sessionsSvc))

	protected.HandleFunc("/calendar", calendarHandler.Upload).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/calendar/sample", calendarHandler.LoadSample).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/calendar/events", calendarHandler.Events).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/timeline", timelineHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/timeline/advance", timelineHandler.Advance).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/timeline/set", timelineHandler.SetDate).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/timeline/reset", timelineHandler.Reset).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/timeline/demo", timelineHandler.SetDemoMode).Methods(http.MethodPost, http.MethodOptions)

	protected.HandleFunc("/details/{eventID}/questions", detailsHandler.Questions).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/details/{eventID}", detailsHandler.Update).Methods(http.MethodPut, http.MethodOptions)

	protected.HandleFunc("/alerts", alertsHandler.List).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/alerts/ack", alertsHandler.Acknowledge).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/alerts/{eventID}/check", alertsHandler.Check).Methods(http.MethodPost, http.MethodOptions)

	protected.HandleFunc("/travel-estimate", travelHandler.Estimate).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/logs/summary", logsHandler.Summary).Methods(http.MethodGet, http.MethodOptions)
}
