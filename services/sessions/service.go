package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"prophecal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid token")
)

const (
	// DefaultSessionDuration is the default lifetime of a session.
	DefaultSessionDuration = 24 * time.Hour

	// TokenLength is the number of random bytes used for session tokens.
	TokenLength = 32
)

// State is the per-session bundle of mutable demo state. Each session owns
// its own clock, event store, detail store, issue checker (cache included)
// and acknowledgment set; nothing is shared across sessions.
type State interface {
	Close() error
}

// StateFactory builds a fresh state bundle for a new or restored session.
// sessionName is the name operational-log records are filed under.
type StateFactory func(sessionName string) (State, error)

// Service manages operator sessions and their isolated state bundles. The
// token table is persisted as JSON so a restart does not log everyone out;
// the state bundles themselves are not (user edits do not survive restarts)
// and are rebuilt lazily.
type Service struct {
	mu       sync.RWMutex
	fs       afero.Fs
	path     string
	sessions map[string]models.Session
	states   map[string]State
	duration time.Duration
	factory  StateFactory
}

// NewService creates a sessions service. fs and storageDir configure token
// persistence; an empty storageDir keeps everything in memory.
func NewService(fs afero.Fs, storageDir string, duration time.Duration, factory StateFactory) (*Service, error) {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	if factory == nil {
		return nil, errors.New("state factory is required")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}

	svc := &Service{
		fs:       fs,
		sessions: make(map[string]models.Session),
		states:   make(map[string]State),
		duration: duration,
		factory:  factory,
	}

	if strings.TrimSpace(storageDir) != "" {
		if err := svc.fs.MkdirAll(storageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create sessions dir: %w", err)
		}
		svc.path = filepath.Join(storageDir, "sessions.json")
		if err := svc.load(); err != nil {
			return nil, err
		}
	}

	go svc.cleanupLoop()

	return svc, nil
}

// Create generates a new session and its state bundle.
func (s *Service) Create(userAgent string) (models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now().UTC()
	session := models.Session{
		Token:     token,
		Name:      now.Format("20060102_150405") + "-" + token[:8],
		ExpiresAt: now.Add(s.duration),
		CreatedAt: now,
		UserAgent: userAgent,
	}

	state, err := s.factory(session.Name)
	if err != nil {
		return models.Session{}, fmt.Errorf("build session state: %w", err)
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.states[token] = state
	if err := s.saveLocked(); err != nil {
		delete(s.sessions, token)
		delete(s.states, token)
		s.mu.Unlock()
		state.Close()
		return models.Session{}, err
	}
	s.mu.Unlock()

	return session, nil
}

// Validate checks a token and returns the associated session.
func (s *Service) Validate(token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrInvalidToken
	}

	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	if session.IsExpired() {
		s.mu.Lock()
		s.dropLocked(token)
		s.mu.Unlock()
		return models.Session{}, ErrSessionExpired
	}
	return session, nil
}

// State returns the state bundle for a valid token, rebuilding it when the
// session was restored from disk.
func (s *Service) State(token string) (State, error) {
	session, err := s.Validate(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.states[token]; ok {
		return state, nil
	}
	state, err := s.factory(session.Name)
	if err != nil {
		return nil, fmt.Errorf("rebuild session state: %w", err)
	}
	s.states[token] = state
	return state, nil
}

// Revoke invalidates a session and closes its state bundle.
func (s *Service) Revoke(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	s.dropLocked(token)
	return s.saveLocked()
}

// Cleanup removes all expired sessions. Returns how many were dropped.
func (s *Service) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := time.Now()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			s.dropLocked(token)
			count++
		}
	}
	if count > 0 {
		_ = s.saveLocked()
	}
	return count
}

// Count returns the number of active sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// dropLocked removes a session and closes its state. Must hold mu.
func (s *Service) dropLocked(token string) {
	if state, ok := s.states[token]; ok {
		_ = state.Close()
		delete(s.states, token)
	}
	delete(s.sessions, token)
}

// cleanupLoop periodically removes expired sessions.
func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.Cleanup()
	}
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// load reads the persisted token table. State bundles are not restored here;
// they are rebuilt on first use.
func (s *Service) load() error {
	if s.path == "" {
		return nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, afero.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("read sessions file: %w", err)
	}

	var stored []models.Session
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("decode sessions: %w", err)
	}

	now := time.Now()
	s.sessions = make(map[string]models.Session, len(stored))
	for _, session := range stored {
		if strings.TrimSpace(session.Token) == "" {
			continue
		}
		if now.After(session.ExpiresAt) {
			continue
		}
		s.sessions[session.Token] = session
	}
	return nil
}

// saveLocked writes the token table atomically. Must hold mu.
func (s *Service) saveLocked() error {
	if s.path == "" {
		return nil
	}

	sessions := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write sessions temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace sessions file: %w", err)
	}
	return nil
}
