package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"prophecal/internal/app"
	"prophecal/internal/config"
	"prophecal/services/sessions"
	"prophecal/utils"
)

func newTestServer(t *testing.T) *mux.Router {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LogDir = "" // stderr only
	// Keep the heuristic checks quiet so responses are deterministic.
	cfg.Thresholds.Weather = 1.1
	cfg.Thresholds.Traffic = 1.1
	cfg.Thresholds.WeekendTransit = 1.1
	cfg.Thresholds.Construction = 1.1
	cfg.Thresholds.NearbyEvent = 1.1

	sessionsSvc, err := sessions.NewService(afero.NewMemMapFs(), "", 0, app.Factory(cfg, ""))
	if err != nil {
		t.Fatalf("failed to create sessions service: %v", err)
	}

	router := utils.NewRouter()
	RegisterRoutes(router, sessionsSvc, cfg)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, router *mux.Router) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("session create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	return resp.Token
}

func TestHealthAndAuthRequired(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/timeline", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/timeline", "bogus", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestSampleCalendarFlow(t *testing.T) {
	router := newTestServer(t)
	token := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/calendar/sample", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sample load: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var load LoadResponse
	if err := json.NewDecoder(rec.Body).Decode(&load); err != nil {
		t.Fatal(err)
	}
	if load.Count != 4 {
		t.Fatalf("expected 4 sample events, got %d", load.Count)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/calendar/events", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("events: expected 200, got %d", rec.Code)
	}
	var events struct {
		Events []EventResponse `json:"events"`
		Total  int             `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	if events.Total != 4 {
		t.Fatalf("expected 4 upcoming events, got %d", events.Total)
	}
	if events.Events[0].DaysUntil != 5 {
		t.Errorf("first event daysUntil = %d, want 5", events.Events[0].DaysUntil)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/calendar/sample?name=nope", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown sample: expected 404, got %d", rec.Code)
	}
}

func TestSessionIsolation(t *testing.T) {
	router := newTestServer(t)
	tokenA := createSession(t, router)
	tokenB := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/calendar/sample", tokenA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sample load: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/calendar/events", tokenB, nil)
	var events struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	if events.Total != 0 {
		t.Fatalf("session B sees %d events from session A", events.Total)
	}
}

func TestAlertFlow(t *testing.T) {
	router := newTestServer(t)
	token := createSession(t, router)

	doJSON(t, router, http.MethodPost, "/api/calendar/sample", token, nil)

	// Team Meeting sits 5 days out; advance 4 so it is 1 day away.
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/advance", token, map[string]int{"days": 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/alerts", token, nil)
	var alerts struct {
		Alerts []AlertResponse `json:"alerts"`
		Total  int             `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&alerts); err != nil {
		t.Fatal(err)
	}
	if alerts.Total != 1 {
		t.Fatalf("expected 1 due alert, got %d", alerts.Total)
	}
	if alerts.Alerts[0].DaysBefore != 1 {
		t.Errorf("daysBefore = %d, want 1", alerts.Alerts[0].DaysBefore)
	}

	ack := map[string]any{"eventId": alerts.Alerts[0].EventID, "daysBefore": 1}
	rec = doJSON(t, router, http.MethodPost, "/api/alerts/ack", token, ack)
	if rec.Code != http.StatusOK {
		t.Fatalf("ack: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/alerts", token, nil)
	if err := json.NewDecoder(rec.Body).Decode(&alerts); err != nil {
		t.Fatal(err)
	}
	if alerts.Total != 0 {
		t.Fatalf("expected no alerts after ack, got %d", alerts.Total)
	}
}

func TestDetailsFlow(t *testing.T) {
	router := newTestServer(t)
	token := createSession(t, router)

	doJSON(t, router, http.MethodPost, "/api/calendar/sample", token, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/events", token, nil)
	var events struct {
		Events []EventResponse `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	eventID := url.PathEscape(events.Events[0].ID)

	rec = doJSON(t, router, http.MethodGet, "/api/details/"+eventID+"/questions", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("questions: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var q QuestionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&q); err != nil {
		t.Fatal(err)
	}
	if len(q.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(q.Questions))
	}

	// A bare "930" is repaired to a valid time.
	rec = doJSON(t, router, http.MethodPut, "/api/details/"+eventID, token,
		UpdateRequest{Field: "arrival_time", Value: "930"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Details struct {
			ArrivalTime string `json:"arrivalTime"`
		} `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if updated.Details.ArrivalTime != "9:30" {
		t.Errorf("arrival = %q, want 9:30", updated.Details.ArrivalTime)
	}

	// Unrepairable answers are rejected.
	rec = doJSON(t, router, http.MethodPut, "/api/details/"+eventID, token,
		UpdateRequest{Field: "arrival_time", Value: "25:99"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/details/unknown_event", token,
		UpdateRequest{Field: "location", Value: "Downtown"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown event, got %d", rec.Code)
	}
}

func TestIssueCheckEndpoint(t *testing.T) {
	router := newTestServer(t)
	token := createSession(t, router)

	doJSON(t, router, http.MethodPost, "/api/calendar/sample", token, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/events", token, nil)
	var events struct {
		Events []EventResponse `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	eventID := url.PathEscape(events.Events[0].ID)

	// No location collected yet: nothing to check.
	rec = doJSON(t, router, http.MethodPost, "/api/alerts/"+eventID+"/check", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var check struct {
		Issues []json.RawMessage `json:"issues"`
		Mode   string            `json:"mode"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&check); err != nil {
		t.Fatal(err)
	}
	if len(check.Issues) != 0 {
		t.Fatalf("expected no issues without a location, got %d", len(check.Issues))
	}
	if check.Mode != "heuristic" {
		t.Errorf("mode = %q, want heuristic", check.Mode)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/alerts/missing_event/check", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown event, got %d", rec.Code)
	}
}

func TestTravelEstimateEndpoint(t *testing.T) {
	router := newTestServer(t)
	token := createSession(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/travel-estimate?destination=Office&arrival=9:00", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var est struct {
		EstimatedDurationMinutes int    `json:"estimatedDurationMinutes"`
		SuggestedDeparture       string `json:"suggestedDeparture"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&est); err != nil {
		t.Fatal(err)
	}
	if est.EstimatedDurationMinutes < 15 || est.EstimatedDurationMinutes > 60 {
		t.Errorf("duration %d outside expected range", est.EstimatedDurationMinutes)
	}
	if est.SuggestedDeparture == "" {
		t.Error("expected a suggested departure")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/travel-estimate", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without destination, got %d", rec.Code)
	}
}
