package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/questboard/internal/adapters/github"
	"github.com/okian/questboard/internal/adapters/repository"
	"github.com/okian/questboard/internal/config"
	"github.com/okian/questboard/pkg/logger"
	"github.com/okian/questboard/pkg/metrics"
	"github.com/spf13/cobra"
)

const pushJob = "questboard"

// runEnv is the per-invocation wiring shared by every command.
type runEnv struct {
	cfg  *config.Config
	log  logger.Logger
	opts *RootOptions
}

func setup(cmd *cobra.Command, opts *RootOptions) (*runEnv, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithJSON(cfg.LogFormat == "json"),
	); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	runID := uuid.NewString()
	log := logger.Named(cmd.CommandPath()).With(logger.String("run_id", runID))

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(level); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	log.Debug(ctx, "configuration loaded",
		logger.String("repository", cfg.Repository),
		logger.String("ledger_path", cfg.LedgerPath),
		logger.String("api_base_url", cfg.APIBaseURL),
	)
	return &runEnv{cfg: cfg, log: log, opts: opts}, nil
}

// tracker builds the GitHub client for the configured repository.
func (r *runEnv) tracker() (*github.Repository, error) {
	if err := r.cfg.ValidateForTracker(); err != nil {
		return nil, err
	}
	client, err := github.NewClient(github.Config{
		BaseURL:    r.cfg.APIBaseURL,
		Token:      r.cfg.Token,
		UserAgent:  r.cfg.UserAgent,
		Timeout:    r.cfg.RequestTimeout,
		HTTPClient: r.opts.httpClient,
		Logger:     r.log.Named("github"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	repo, err := client.Repo(r.cfg.Repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return repo, nil
}

func (r *runEnv) store(path string) *repository.FileStore {
	return repository.NewFileStore(path, repository.WithLogger(r.log.Named("ledger")))
}

// finish pushes run metrics when a Pushgateway is configured. Push
// failures are logged and never change the exit status.
func (r *runEnv) finish(ctx context.Context) {
	if r.cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(ctx, r.cfg.PushgatewayURL, pushJob); err != nil {
		r.log.Warn(ctx, "pushing metrics failed", logger.Error(err))
		return
	}
	r.log.Debug(ctx, "metrics pushed", logger.String("url", r.cfg.PushgatewayURL))
}
