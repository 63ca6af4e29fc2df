// Package oplog is the structured operational log: session lifecycle,
// calendar loads, issue-check invocations and external-service calls, written
// for the operator's benefit rather than the core's.
package oplog

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TokenTotals accumulates external-service token usage for one session.
type TokenTotals struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Summary is a point-in-time digest of one session's log activity.
type Summary struct {
	SessionName string      `json:"sessionName"`
	StartedAt   time.Time   `json:"startedAt"`
	LLMCalls    int         `json:"llmCalls"`
	Events      int         `json:"events"`
	Tokens      TokenTotals `json:"tokens"`
}

// llmRecord is one line of the JSONL trace of external-service calls.
type llmRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	TotalTokens  int       `json:"totalTokens"`
	Purpose      string    `json:"purpose"`
}

// eventRecord is one line of the JSONL trace of application events.
type eventRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Name      string         `json:"name"`
	Details   map[string]any `json:"details,omitempty"`
}

// Logger writes one session's operational records: a rotating plain-text app
// log plus JSONL traces for events and external-service calls. A Logger with
// no directory configured logs to stderr only.
type Logger struct {
	mu          sync.Mutex
	sessionName string
	startedAt   time.Time
	std         *log.Logger
	appOut      io.Closer // rotating app log, nil without a directory
	llmOut      io.WriteCloser
	eventOut    io.WriteCloser

	llmCalls int
	events   int
	tokens   TokenTotals
}

// New creates a session logger under dir, organized by day folder. An empty
// dir disables file output. An empty sessionName gets an auto-generated one.
func New(dir, sessionName string) (*Logger, error) {
	now := time.Now()
	if sessionName == "" {
		sessionName = fmt.Sprintf("%s-%s", now.Format("20060102_150405"), uuid.NewString()[:8])
	}

	l := &Logger{
		sessionName: sessionName,
		startedAt:   now,
		std:         log.New(os.Stderr, "", log.LstdFlags),
	}

	if dir != "" {
		dayDir := filepath.Join(dir, now.Format("2006-01-02"))
		if err := os.MkdirAll(dayDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}

		rotating := &lumberjack.Logger{
			Filename:   filepath.Join(dayDir, "app.log"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		}
		l.appOut = rotating
		l.std = log.New(io.MultiWriter(os.Stderr, rotating), "", log.LstdFlags)

		llmFile, err := os.OpenFile(
			filepath.Join(dayDir, "llm_"+sessionName+".jsonl"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open llm log: %w", err)
		}
		l.llmOut = llmFile

		eventFile, err := os.OpenFile(
			filepath.Join(dayDir, "session_"+sessionName+".jsonl"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			llmFile.Close()
			return nil, fmt.Errorf("open session log: %w", err)
		}
		l.eventOut = eventFile
	}

	l.std.Printf("[oplog] session %s started", sessionName)
	l.logEvent("session", "start", nil)
	return l, nil
}

// SessionName returns the name records are filed under.
func (l *Logger) SessionName() string {
	return l.sessionName
}

// LogCalendarLoad records a calendar replacing the event store.
func (l *Logger) LogCalendarLoad(source string, eventCount int) {
	l.std.Printf("[oplog] calendar load: %s (%d events)", source, eventCount)
	l.logEvent("calendar_load", source, map[string]any{"event_count": eventCount})
}

// LogIssueCheck records one issue-check invocation.
func (l *Logger) LogIssueCheck(eventName, location, date, mode string) {
	l.std.Printf("[oplog] issue check: event=%q location=%q date=%s mode=%s", eventName, location, date, mode)
	l.logEvent("issue_check", eventName, map[string]any{
		"location": location,
		"date":     date,
		"mode":     mode,
	})
}

// LogLLMCall records one external-service call with token accounting.
func (l *Logger) LogLLMCall(model, prompt, response string, inputTokens, outputTokens int, purpose string) {
	rec := llmRecord{
		Timestamp:    time.Now(),
		Model:        model,
		Prompt:       prompt,
		Response:     response,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Purpose:      purpose,
	}

	l.mu.Lock()
	l.llmCalls++
	l.tokens.Input += inputTokens
	l.tokens.Output += outputTokens
	l.tokens.Total += inputTokens + outputTokens
	if l.llmOut != nil {
		if line, err := json.Marshal(rec); err == nil {
			l.llmOut.Write(append(line, '\n'))
		}
	}
	l.mu.Unlock()

	l.std.Printf("[oplog] llm call: %s [%d in / %d out] - %s", model, inputTokens, outputTokens, purpose)
}

// Info writes a free-form line to the app log.
func (l *Logger) Info(format string, args ...any) {
	l.std.Printf("[oplog] "+format, args...)
}

// Error writes an error line to the app log.
func (l *Logger) Error(msg string, err error) {
	l.std.Printf("[oplog] ERROR %s: %v", msg, err)
}

// SessionSummary returns the running counters for this session.
func (l *Logger) SessionSummary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Summary{
		SessionName: l.sessionName,
		StartedAt:   l.startedAt,
		LLMCalls:    l.llmCalls,
		Events:      l.events,
		Tokens:      l.tokens,
	}
}

// Close flushes and closes file outputs.
func (l *Logger) Close() error {
	l.logEvent("session", "end", nil)
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, c := range []io.Closer{l.llmOut, l.eventOut, l.appOut} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.llmOut = nil
	l.eventOut = nil
	l.appOut = nil
	return firstErr
}

func (l *Logger) logEvent(eventType, name string, details map[string]any) {
	rec := eventRecord{
		Timestamp: time.Now(),
		Type:      eventType,
		Name:      name,
		Details:   details,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events++
	if l.eventOut == nil {
		return
	}
	if line, err := json.Marshal(rec); err == nil {
		l.eventOut.Write(append(line, '\n'))
	}
}
