package issues

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"prophecal/models"
)

// Thresholds carries the fixed probabilities of the heuristic strategy. A
// draw strictly above a threshold emits the corresponding advisory. These are
// configuration, not domain logic: the numbers only shape how chatty the demo
// feels.
type Thresholds struct {
	Weather           float64 `yaml:"weather"`
	WeatherWindowDays int     `yaml:"weather_window_days"`
	Traffic           float64 `yaml:"traffic"`
	WeekendTransit    float64 `yaml:"weekend_transit"`
	Construction      float64 `yaml:"construction"`
	NearbyEvent       float64 `yaml:"nearby_event"`
}

// DefaultThresholds returns the stock probabilities.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Weather:           0.7,
		WeatherWindowDays: 7,
		Traffic:           0.6,
		WeekendTransit:    0.8,
		Construction:      0.75,
		NearbyEvent:       0.8,
	}
}

// heuristic produces synthetic advisories from independent pseudo-random
// draws. It never fails; the worst case is an empty list.
type heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
	th  Thresholds
}

func newHeuristic(th Thresholds, rng *rand.Rand) *heuristic {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &heuristic{rng: rng, th: th}
}

func (h *heuristic) draw() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()
}

// check runs the fixed-probability advisory draws for one trip plan.
// daysUntil is measured against the session clock, so weather advisories
// track the simulated date rather than the wall clock.
func (h *heuristic) check(ed models.EventWithDetails, daysUntil int) []models.Issue {
	var issues []models.Issue
	location := ed.Location()
	date := ed.Event.StartDay().Format("2006-01-02")

	if daysUntil <= h.th.WeatherWindowDays && h.draw() > h.th.Weather {
		issues = append(issues, models.Issue{
			Type:     models.IssueWeather,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Weather forecast shows possible rain on %s. Consider bringing an umbrella.", date),
		})
	}

	if h.draw() > h.th.Traffic {
		issues = append(issues, models.Issue{
			Type:     models.IssueTraffic,
			Severity: models.SeverityInfo,
			Message:  fmt.Sprintf("Heavy traffic expected near %s during typical commute hours. Consider leaving 30 minutes earlier.", location),
		})
	}

	if wd := ed.Event.Start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		if h.draw() > h.th.WeekendTransit {
			issues = append(issues, models.Issue{
				Type:     models.IssueTransit,
				Severity: models.SeverityInfo,
				Message:  "Weekend transit schedule may be different. Please check your route in advance.",
			})
		}
	}

	if h.draw() > h.th.Construction {
		issues = append(issues, models.Issue{
			Type:     models.IssueLocation,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("There may be construction or road work near %s. Plan your route accordingly.", location),
		})
	}

	if h.draw() > h.th.NearbyEvent {
		issues = append(issues, models.Issue{
			Type:     models.IssueLocation,
			Severity: models.SeverityInfo,
			Message:  fmt.Sprintf("Large event scheduled near %s on the same day. Parking may be limited.", location),
		})
	}

	return issues
}

// travelEstimate fabricates a door-to-door projection for the demo UI.
func (h *heuristic) travelEstimate(arrivalTime string) models.TravelEstimate {
	h.mu.Lock()
	base := 15 + h.rng.Intn(46) // 15..60 minutes
	extra := h.rng.Intn(21)     // 0..20 minutes
	h.mu.Unlock()

	return models.TravelEstimate{
		EstimatedMinutes:   base,
		WithTrafficMinutes: base + extra,
		SuggestedDeparture: fmt.Sprintf("Depart approximately %d minutes before %s", base+15, arrivalTime),
	}
}
