// Package app wires the per-session service bundle together.
package app

import (
	"prophecal/internal/config"
	"prophecal/internal/oplog"
	"prophecal/services/calendar"
	"prophecal/services/details"
	"prophecal/services/issues"
	"prophecal/services/sessions"
	"prophecal/services/timeline"
)

// State is one session's mutable world: its own calendar, simulated
// clock, collected details, issue cache, and operation log. Sessions
// never share any of it.
type State struct {
	Log      *oplog.Logger
	Calendar *calendar.Service
	Timeline *timeline.Service
	Details  *details.Service
	Issues   *issues.Service
}

// NewState builds a fresh bundle for one session.
func NewState(cfg *config.Config, geminiAPIKey, sessionName string) (*State, error) {
	logger, err := oplog.New(cfg.LogDir, sessionName)
	if err != nil {
		return nil, err
	}

	tl := timeline.New(cfg.DemoMode)
	iss := issues.New(issues.Options{
		APIKey:     geminiAPIKey,
		Model:      cfg.GeminiModel,
		Clock:      tl,
		Logger:     logger,
		Thresholds: cfg.Thresholds,
	})

	return &State{
		Log:      logger,
		Calendar: calendar.New(),
		Timeline: tl,
		Details:  details.New(),
		Issues:   iss,
	}, nil
}

// Close flushes and closes the session's operation log.
func (s *State) Close() error {
	return s.Log.Close()
}

// Factory adapts NewState to the session manager.
func Factory(cfg *config.Config, geminiAPIKey string) sessions.StateFactory {
	return func(sessionName string) (sessions.State, error) {
		return NewState(cfg, geminiAPIKey, sessionName)
	}
}
