package issues

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"prophecal/models"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-2.0-flash"

	// noConcernsSentinel is the canonical "nothing to report" reply the prompt
	// asks for; a matching response yields an empty issue list.
	noConcernsSentinel = "NO_CONCERNS"

	// maxIssueLines caps how many advisories one response may produce.
	maxIssueLines = 3

	// minIssueLineLen drops response fragments too short to be an advisory.
	minIssueLineLen = 12
)

type geminiClient struct {
	apiKey      string
	model       string
	httpc       *http.Client
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newGeminiClient(apiKey, model string, httpc *http.Client) *geminiClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiClient{
		apiKey:      strings.TrimSpace(apiKey),
		model:       model,
		httpc:       httpc,
		minInterval: 100 * time.Millisecond,
	}
}

func (c *geminiClient) isConfigured() bool {
	return c.apiKey != ""
}

// geminiRequest is the request body for the Gemini generateContent API.
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// geminiResponse is the response from the Gemini generateContent API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// callResult carries the raw response text plus token accounting for the
// operational log.
type callResult struct {
	text         string
	inputTokens  int
	outputTokens int
}

// checkIssues asks Gemini for actionable concerns about one trip plan. It
// issues a single generateContent call (with transient-failure retries) and
// parses the line-oriented reply into at most three issues.
func (c *geminiClient) checkIssues(ctx context.Context, location, date string, d models.EventDetails) ([]models.Issue, *callResult, error) {
	if !c.isConfigured() {
		return nil, nil, errors.New("gemini api key not configured")
	}

	prompt := buildIssuePrompt(location, date, d)

	res, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	return parseIssueLines(res.text), res, nil
}

// buildIssuePrompt embeds the full known trip plan in one natural-language
// query and restricts the reply to actionable categories.
func buildIssuePrompt(location, date string, d models.EventDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a trip-planning assistant. A user has an event at %s on %s.\n", location, date)
	if d.TransportMode != "" {
		fmt.Fprintf(&b, "They plan to travel by %s.\n", d.TransportMode)
	}
	if d.ArrivalTime != "" {
		fmt.Fprintf(&b, "They need to arrive by %s.\n", d.ArrivalTime)
	}
	if d.DepartureTime != "" {
		fmt.Fprintf(&b, "They plan to depart at %s.\n", d.DepartureTime)
	}
	b.WriteString(`
List potential issues that could disrupt this trip. Only report actionable concerns:
- transport disruptions relevant to their travel mode (strikes, closures, major delays)
- severe weather warnings for that date and area
- major congestion events (large gatherings, construction, road work) near the location

Respond with at most 3 lines, one short plain-text concern per line, no preamble.
If there are no likely concerns, respond with exactly: ` + noConcernsSentinel + "\n")
	return b.String()
}

// generate performs one generateContent call with retries on transient
// failures (network errors, 429, 5xx).
func (c *geminiClient) generate(ctx context.Context, prompt string) (*callResult, error) {
	// Rate limiting
	c.throttleMu.Lock()
	if since := time.Since(c.lastRequest); since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, c.model, c.apiKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.4,
			MaxOutputTokens: 512,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	var out *callResult
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create gemini request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("gemini request failed: status %d", resp.StatusCode)
			}
			if resp.StatusCode >= 400 {
				body, _ := io.ReadAll(resp.Body)
				return retry.Unrecoverable(fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(body)))
			}

			var geminiResp geminiResponse
			if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode gemini response: %w", err))
			}
			if geminiResp.Error != nil {
				return retry.Unrecoverable(fmt.Errorf("gemini API error: %s", geminiResp.Error.Message))
			}
			if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
				return retry.Unrecoverable(errors.New("gemini returned empty response"))
			}

			out = &callResult{text: geminiResp.Candidates[0].Content.Parts[0].Text}
			if um := geminiResp.UsageMetadata; um != nil {
				out.inputTokens = um.PromptTokenCount
				out.outputTokens = um.CandidatesTokenCount
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseIssueLines turns a line-oriented reply into issues: enumeration
// markers are stripped, lines shorter than minIssueLineLen are dropped, and
// at most maxIssueLines survive. The no-concerns sentinel yields nil.
func parseIssueLines(text string) []models.Issue {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.EqualFold(trimmed, noConcernsSentinel) {
		return nil
	}

	var issues []models.Issue
	for _, line := range strings.Split(trimmed, "\n") {
		line = stripEnumMarker(line)
		if len(line) < minIssueLineLen {
			continue
		}
		if strings.EqualFold(line, noConcernsSentinel) {
			continue
		}
		issues = append(issues, models.Issue{
			Type:     models.IssueAIForecast,
			Severity: lineSeverity(line),
			Message:  line,
		})
		if len(issues) == maxIssueLines {
			break
		}
	}
	return issues
}

// stripEnumMarker removes leading list markers like "1.", "2)", "-", "*".
func stripEnumMarker(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*•")
	line = strings.TrimSpace(line)

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}
	return strings.TrimSpace(line)
}

func lineSeverity(line string) models.IssueSeverity {
	lower := strings.ToLower(line)
	for _, kw := range []string{"severe", "storm", "closure", "closed", "strike", "cancel", "major delay"} {
		if strings.Contains(lower, kw) {
			return models.SeverityWarning
		}
	}
	return models.SeverityInfo
}
