package models

import "time"

// Session identifies one operator session. All mutable demo state (timeline,
// loaded events, trip details, acknowledgments, issue cache) is owned by the
// session's state bundle; nothing is shared across sessions.
type Session struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"` // operational-log session name
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// IsExpired returns true if the session has expired.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
