package issues

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"time"

	"prophecal/models"
)

// Mode selects the evaluation strategy. It is fixed at construction for the
// lifetime of the checker.
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeExternal  Mode = "external"
)

// Clock supplies the current date; the session timeline satisfies it.
type Clock interface {
	CurrentDate() time.Time
}

// CallLogger records issue-check invocations and external-service calls for
// operator visibility. The operational log satisfies it.
type CallLogger interface {
	LogIssueCheck(eventName, location, date string, mode string)
	LogLLMCall(model, prompt, response string, inputTokens, outputTokens int, purpose string)
}

// Options configures an issue checker.
type Options struct {
	// APIKey enables external mode when non-empty; otherwise the checker runs
	// fully offline on heuristics.
	APIKey string
	// Model overrides the default Gemini model name.
	Model string
	// Clock is the session time source. Required.
	Clock Clock
	// Logger receives structured records; nil disables them.
	Logger CallLogger
	// Thresholds for the heuristic strategy; zero value means defaults.
	Thresholds Thresholds
	// Rand seeds the heuristic draws; nil means time-seeded.
	Rand *rand.Rand
	// HTTPClient overrides the external-service client, mainly for tests.
	HTTPClient *http.Client
}

// Service decides, for an event plus its trip details, which advisory notices
// apply. Results are memoized per (location, date, transport, arrival,
// departure) so the external service is consulted at most once per unique
// trip plan in a session.
type Service struct {
	mode   Mode
	cache  *memoCache
	heur   *heuristic
	gemini *geminiClient
	clock  Clock
	logger CallLogger
}

// New builds a checker. The strategy is chosen once: external when an API key
// is present, heuristic otherwise.
func New(opts Options) *Service {
	th := opts.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}

	s := &Service{
		mode:   ModeHeuristic,
		cache:  newMemoCache(),
		heur:   newHeuristic(th, opts.Rand),
		clock:  opts.Clock,
		logger: opts.Logger,
	}
	if opts.APIKey != "" {
		s.mode = ModeExternal
		s.gemini = newGeminiClient(opts.APIKey, opts.Model, opts.HTTPClient)
	}
	return s
}

// Mode reports the strategy fixed at construction.
func (s *Service) Mode() Mode {
	return s.mode
}

// CheckForIssues returns the advisories for an event merged with its details.
// Without a location there is nothing to check and the answer is empty. A
// repeated call with an unchanged trip plan returns the memoized list without
// recomputation or a second external call. This method never fails: external
// trouble degrades to the heuristic strategy for that call.
func (s *Service) CheckForIssues(ctx context.Context, ed models.EventWithDetails) []models.Issue {
	location := ed.Location()
	if location == "" {
		return nil
	}

	date := ed.Event.StartDay().Format("2006-01-02")
	key := cacheKey(location, date, ed.Details.TransportMode, ed.Details.ArrivalTime, ed.Details.DepartureTime)
	if cached, ok := s.cache.get(key); ok {
		return cached
	}

	if s.logger != nil {
		s.logger.LogIssueCheck(ed.Event.Name, location, date, string(s.mode))
	}

	issues := s.evaluate(ctx, ed, location, date)
	s.cache.put(key, issues)
	return issues
}

func (s *Service) evaluate(ctx context.Context, ed models.EventWithDetails, location, date string) []models.Issue {
	daysUntil := daysUntil(ed.Event.StartDay(), s.clock.CurrentDate())

	if s.mode == ModeExternal {
		issues, res, err := s.gemini.checkIssues(ctx, location, date, ed.Details)
		if err == nil {
			if s.logger != nil {
				s.logger.LogLLMCall(s.gemini.model, buildIssuePrompt(location, date, ed.Details), res.text, res.inputTokens, res.outputTokens, "issue_check")
			}
			return issues
		}
		// Degrade to heuristics for this call; the failure stays out of the
		// caller's way.
		log.Printf("[issues] external check failed, falling back to heuristics: %v", err)
	}

	return s.heur.check(ed, daysUntil)
}

// TravelEstimate returns a mocked door-to-door projection between two places.
func (s *Service) TravelEstimate(origin, destination, arrivalTime string) models.TravelEstimate {
	_ = origin
	_ = destination
	return s.heur.travelEstimate(arrivalTime)
}

// CachedPlans reports how many unique trip plans have been evaluated.
func (s *Service) CachedPlans() int {
	return s.cache.size()
}

func daysUntil(eventDay, current time.Time) int {
	a := time.Date(eventDay.Year(), eventDay.Month(), eventDay.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b) / (24 * time.Hour))
}
