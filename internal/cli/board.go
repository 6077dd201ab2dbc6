package cli

import (
	"fmt"
	"io"

	service "github.com/okian/questboard/internal/app"
	"github.com/spf13/cobra"
)

type leaderboardFlags struct {
	readme     string
	top        int
	fromJSON   string
	fromGitHub bool
	repo       string
}

type questFlags struct {
	readme string
	repo   string
	debug  bool
}

func newBoardCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Regenerate README boards",
	}
	cmd.AddCommand(newLeaderboardCommand(opts))
	cmd.AddCommand(newQuestsCommand(opts))
	return cmd
}

func newLeaderboardCommand(opts *RootOptions) *cobra.Command {
	flags := &leaderboardFlags{}
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Render the contributor leaderboard into the README",
		Long: `Render the contributor leaderboard between
<!-- LEADERBOARD:START --> and <!-- LEADERBOARD:END -->.

Totals come from the points ledger by default. --from-github recomputes
them from closed issues with a Points label, split among assignees.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLeaderboard(cmd, opts, flags)
		},
	}
	cmd.Flags().StringVar(&flags.readme, "readme", "", "README to update (default from config)")
	cmd.Flags().IntVar(&flags.top, "top", 0, "number of rows to show (default from config)")
	cmd.Flags().StringVar(&flags.fromJSON, "from-json", "", "ledger file to read totals from (default $LEADERBOARD_DB)")
	cmd.Flags().BoolVar(&flags.fromGitHub, "from-github", false, "recompute totals from closed GitHub issues")
	cmd.Flags().StringVar(&flags.repo, "repo", "", "owner/repo override for --from-github")
	cmd.MarkFlagsMutuallyExclusive("from-json", "from-github")
	return cmd
}

func runLeaderboard(cmd *cobra.Command, opts *RootOptions, flags *leaderboardFlags) error {
	rt, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer rt.finish(ctx)

	if flags.repo != "" {
		rt.cfg.Repository = flags.repo
	}
	ledgerPath := rt.cfg.LedgerPath
	if flags.fromJSON != "" {
		ledgerPath = flags.fromJSON
	}

	svcOpts := []service.Option{
		service.WithStore(rt.store(ledgerPath)),
		service.WithLogger(rt.log),
	}
	if flags.fromGitHub {
		repo, err := rt.tracker()
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, service.WithTracker(repo))
	}

	top := rt.cfg.LeaderboardTop
	if cmd.Flags().Changed("top") {
		if flags.top < 1 {
			return fmt.Errorf("%w: --top must be at least 1", ErrUsage)
		}
		top = flags.top
	}

	res, err := service.New(svcOpts...).UpdateLeaderboard(ctx, service.LeaderboardOptions{
		ReadmePath:  pick(flags.readme, rt.cfg.ReadmePath),
		Top:         top,
		FromTracker: flags.fromGitHub,
	})
	if err != nil {
		return err
	}
	printBoard(cmd.OutOrStdout(), service.BoardLeaderboard, res)
	return nil
}

func newQuestsCommand(opts *RootOptions) *cobra.Command {
	flags := &questFlags{}
	cmd := &cobra.Command{
		Use:   "quests",
		Short: "Render open quests into the README",
		Long: `Render open quest issues between <!-- QUESTS:START --> and
<!-- QUESTS:END -->, grouped by quest type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuests(cmd, opts, flags)
		},
	}
	cmd.Flags().StringVar(&flags.readme, "readme", "", "README to update (default from config)")
	cmd.Flags().StringVar(&flags.repo, "repo", "", "owner/repo override")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "log the decision taken for every issue")
	return cmd
}

func runQuests(cmd *cobra.Command, opts *RootOptions, flags *questFlags) error {
	rt, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer rt.finish(ctx)

	if flags.repo != "" {
		rt.cfg.Repository = flags.repo
	}
	repo, err := rt.tracker()
	if err != nil {
		return err
	}

	svc := service.New(service.WithTracker(repo), service.WithLogger(rt.log))
	res, err := svc.UpdateQuests(ctx, service.QuestOptions{
		ReadmePath: pick(flags.readme, rt.cfg.ReadmePath),
		Debug:      flags.debug,
	})
	if err != nil {
		return err
	}
	printBoard(cmd.OutOrStdout(), service.BoardQuests, res)
	return nil
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

func printBoard(w io.Writer, name string, res service.BoardResult) {
	if res.Changed {
		fmt.Fprintf(w, "%s updated (%d rows)\n", name, res.Rows)
		return
	}
	fmt.Fprintf(w, "%s unchanged\n", name)
}
