// Package cli implements the questboard command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/questboard/internal/app"
	"github.com/okian/questboard/internal/config"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("usage error")

// Exit statuses.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	// httpClient replaces the tracker transport in tests.
	httpClient *http.Client
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questboard",
		Short: "Questboard - contribution points for GitHub repositories",
		Long: `Questboard awards points for contributions and renders the results
into the repository README.

Award commands run inside GitHub Actions and read the triggering event
from GITHUB_EVENT_PATH. Board commands regenerate the leaderboard and the
quest board between their README markers.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (default $QUESTBOARD_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")

	cmd.AddCommand(newAwardCommand(opts))
	cmd.AddCommand(newBoardCommand(opts))

	return cmd
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// ExitCode maps an Execute error onto the process exit status:
// misconfiguration and bad input exit 2, everything else 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrLoadConfig),
		errors.Is(err, service.ErrEventPayload),
		errors.Is(err, ErrUsage):
		return ExitConfig
	default:
		return ExitFailed
	}
}
