// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file, and the environment.
// - Validation failures wrap ErrInvalidConfig so callers can map them to an
//   exit status.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Repository is the "owner/repo" the bot acts on (GITHUB_REPOSITORY).
	Repository string `koanf:"repository"`

	// Token is the API credential (GITHUB_TOKEN).
	Token string `koanf:"token"`

	// EventPath points at the triggering event payload (GITHUB_EVENT_PATH).
	EventPath string `koanf:"event_path"`

	// Actor is the fallback award actor when the payload lacks one (GITHUB_ACTOR).
	Actor string `koanf:"actor"`

	// LedgerPath is the persisted points ledger (LEADERBOARD_DB).
	LedgerPath string `koanf:"ledger_path"`

	// APIBaseURL is the tracker REST root (GITHUB_API_URL).
	APIBaseURL string `koanf:"api_base_url"`

	// RequestTimeout bounds every tracker API call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// UserAgent is sent with every tracker API call.
	UserAgent string `koanf:"user_agent"`

	// ReadmePath is the document the boards are spliced into.
	ReadmePath string `koanf:"readme_path"`

	// LeaderboardTop caps the number of leaderboard rows.
	LeaderboardTop int `koanf:"leaderboard_top"`

	// PushgatewayURL enables pushing run metrics when non-empty.
	PushgatewayURL string `koanf:"pushgateway_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		LedgerPath:     "data/leaderboard.json",
		APIBaseURL:     "https://api.github.com",
		RequestTimeout: 60 * time.Second,
		UserAgent:      "questboard",
		ReadmePath:     "README.md",
		LeaderboardTop: 20,
	}
}

// RepoParts splits Repository into owner and name.
func (c *Config) RepoParts() (owner, name string, err error) {
	owner, name, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: repository %q is not owner/repo", ErrInvalidConfig, c.Repository)
	}
	return owner, name, nil
}

// ValidateForAward checks the inputs every award invocation needs: the
// repository, the credential and a readable event payload.
func (c *Config) ValidateForAward() error {
	if err := c.validateTracker(); err != nil {
		return err
	}
	if c.EventPath == "" {
		return fmt.Errorf("%w: event path is required", ErrInvalidConfig)
	}
	if _, err := os.Stat(c.EventPath); err != nil {
		return fmt.Errorf("%w: event payload %s: %w", ErrInvalidConfig, c.EventPath, err)
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("%w: ledger path is required", ErrInvalidConfig)
	}
	return nil
}

// ValidateForTracker checks the inputs needed to query the tracker.
func (c *Config) ValidateForTracker() error {
	return c.validateTracker()
}

func (c *Config) validateTracker() error {
	if c.Repository == "" {
		return fmt.Errorf("%w: repository is required", ErrInvalidConfig)
	}
	if _, _, err := c.RepoParts(); err != nil {
		return err
	}
	if c.Token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
