package cli

import (
	"fmt"
	"io"
	"strings"

	service "github.com/okian/questboard/internal/app"
	"github.com/spf13/cobra"
)

func newAwardCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "award",
		Short: "Award points from a GitHub Actions event",
		Long: `Award points from the event at GITHUB_EVENT_PATH.

Requires GITHUB_REPOSITORY, GITHUB_TOKEN and GITHUB_EVENT_PATH. The ledger
lives at LEADERBOARD_DB (default data/leaderboard.json).`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "comment",
		Short: "Handle an issue comment containing /award @user lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAwardComment(cmd, opts)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "merge",
		Short: "Credit the author of a merged pull request for its linked issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAwardMerge(cmd, opts)
		},
	})
	return cmd
}

func newAwardService(rt *runEnv) (*service.Service, *service.Event, error) {
	if err := rt.cfg.ValidateForAward(); err != nil {
		return nil, nil, err
	}
	event, err := service.ReadEvent(rt.cfg.EventPath)
	if err != nil {
		return nil, nil, err
	}
	repo, err := rt.tracker()
	if err != nil {
		return nil, nil, err
	}
	svc := service.New(
		service.WithTracker(repo),
		service.WithStore(rt.store(rt.cfg.LedgerPath)),
		service.WithRepository(repo.FullName()),
		service.WithLogger(rt.log),
	)
	return svc, event, nil
}

func runAwardComment(cmd *cobra.Command, opts *RootOptions) error {
	rt, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer rt.finish(ctx)

	svc, event, err := newAwardService(rt)
	if err != nil {
		return err
	}
	res, err := svc.AwardComment(ctx, event.CommentAward(rt.cfg.Actor))
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func runAwardMerge(cmd *cobra.Command, opts *RootOptions) error {
	rt, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer rt.finish(ctx)

	svc, event, err := newAwardService(rt)
	if err != nil {
		return err
	}
	res, err := svc.AwardMerge(ctx, event.MergeAward())
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res service.Result) {
	switch res.Outcome {
	case service.OutcomeAwarded:
		users := make([]string, len(res.Users))
		for i, u := range res.Users {
			users[i] = "@" + u
		}
		line := fmt.Sprintf("awarded %d points to %s", res.Points, strings.Join(users, ", "))
		if len(res.Applied) > 0 {
			issues := make([]string, len(res.Applied))
			for i, a := range res.Applied {
				issues[i] = fmt.Sprintf("#%d", a.Issue)
			}
			line += " for " + strings.Join(issues, ", ")
		}
		fmt.Fprintln(w, line)
	case service.OutcomeDenied:
		fmt.Fprintln(w, "award denied: actor lacks write permission")
	case service.OutcomeUnscored:
		fmt.Fprintln(w, "issue has no points label")
	default:
		fmt.Fprintln(w, "nothing to award")
	}
}
