package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// githubEnvKeys maps GitHub Actions variables onto config keys. Anything
// else under the GITHUB_ prefix is ignored.
var githubEnvKeys = map[string]string{
	"GITHUB_REPOSITORY": "repository",
	"GITHUB_TOKEN":      "token",
	"GITHUB_EVENT_PATH": "event_path",
	"GITHUB_ACTOR":      "actor",
	"GITHUB_API_URL":    "api_base_url",
}

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if QUESTBOARD_CONFIG or path is set
//  3. GitHub Actions env (GITHUB_*, LEADERBOARD_DB)
//  4. env (prefix QUESTBOARD_)
func Load(_ context.Context, path ...string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	configPath := os.Getenv("QUESTBOARD_CONFIG")
	if len(path) > 0 && path[0] != "" {
		configPath = path[0]
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, configPath, err)
		}
	}

	githubProvider := env.Provider("GITHUB_", ".", func(s string) string {
		return githubEnvKeys[s]
	})
	if err := k.Load(githubProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	ledgerProvider := env.Provider("LEADERBOARD_", ".", func(s string) string {
		if s == "LEADERBOARD_DB" {
			return "ledger_path"
		}
		return ""
	})
	if err := k.Load(ledgerProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// QUESTBOARD_LOG_LEVEL -> log_level; underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider("QUESTBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "questboard_")
		if s == "config" {
			return ""
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.LedgerPath == "" {
		return nil, fmt.Errorf("%w: ledger_path must not be empty", ErrInvalidConfig)
	}
	if cfg.LeaderboardTop < 1 {
		return nil, fmt.Errorf("%w: leaderboard_top must be at least 1", ErrInvalidConfig)
	}
	return &cfg, nil
}
