package models

// IssueType classifies an advisory notice.
type IssueType string

const (
	IssueWeather    IssueType = "weather"
	IssueTraffic    IssueType = "traffic"
	IssueTransit    IssueType = "transit"
	IssueLocation   IssueType = "location"
	IssueAIForecast IssueType = "ai_forecast"
)

// IssueSeverity tags how urgent an advisory is.
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityCritical IssueSeverity = "critical"
)

// Issue is a single advisory for an upcoming trip. Issues are produced by the
// issue checker and never mutated.
type Issue struct {
	Type     IssueType     `json:"type"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
	Details  string        `json:"details,omitempty"`
}

// TravelEstimate is a rough door-to-door travel projection for a trip.
type TravelEstimate struct {
	EstimatedMinutes   int    `json:"estimatedDurationMinutes"`
	WithTrafficMinutes int    `json:"withTrafficMinutes"`
	SuggestedDeparture string `json:"suggestedDeparture"`
}
