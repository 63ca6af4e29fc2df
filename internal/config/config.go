package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"prophecal/services/issues"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DemoMode controls whether new sessions start with the simulated
	// clock enabled.
	DemoMode bool `yaml:"demo_mode" json:"demo_mode"`

	// AlertOffsets are the days-before-event values that produce alerts.
	AlertOffsets []int `yaml:"alert_offsets" json:"alert_offsets"`

	// LookaheadDays bounds the upcoming-events window.
	LookaheadDays int `yaml:"lookahead_days" json:"lookahead_days"`

	// LogDir is the root directory for per-session operation logs.
	// Empty disables file logging.
	LogDir string `yaml:"log_dir" json:"log_dir"`

	// SessionDir is where the session token table is persisted.
	SessionDir string `yaml:"session_dir" json:"session_dir"`

	// SessionHours is the session lifetime in hours.
	SessionHours int `yaml:"session_hours" json:"session_hours"`

	// GeminiModel overrides the default model for external issue checks.
	// The API key itself comes from the environment, never from this file.
	GeminiModel string `yaml:"gemini_model,omitempty" json:"gemini_model,omitempty"`

	// Thresholds tune the heuristic issue checks.
	Thresholds issues.Thresholds `yaml:"thresholds" json:"thresholds"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		DemoMode:      true,
		AlertOffsets:  []int{7, 1},
		LookaheadDays: 60,
		LogDir:        "logs",
		SessionDir:    "data",
		SessionHours:  24,
		Thresholds:    issues.DefaultThresholds(),
	}
}

// Normalize fills in missing or zero values so partially-filled configs
// still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if len(c.AlertOffsets) == 0 {
		c.AlertOffsets = []int{7, 1}
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = 60
	}
	if c.SessionHours <= 0 {
		c.SessionHours = 24
	}
	zero := issues.Thresholds{}
	if c.Thresholds == zero {
		c.Thresholds = issues.DefaultThresholds()
	}
}

// Load reads configuration from a YAML path. A missing file is a first
// run: the default config is written with 0600 perms and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".prophecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
