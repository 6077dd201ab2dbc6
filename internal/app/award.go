package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/questboard/internal/domain/award"
	"github.com/okian/questboard/internal/domain/model"
	"github.com/okian/questboard/pkg/logger"
	"github.com/okian/questboard/pkg/metrics"
)

// Outcome is how an award invocation ended.
type Outcome string

// Award outcomes.
const (
	OutcomeNoop     Outcome = "noop"
	OutcomeDenied   Outcome = "denied"
	OutcomeUnscored Outcome = "unscored"
	OutcomeAwarded  Outcome = "awarded"
)

// IssueAward is one credited issue of a merge award.
type IssueAward struct {
	Issue  int
	Points int
}

// Result reports what an award invocation did.
type Result struct {
	Outcome Outcome
	Users   []string     // credited users
	Points  int          // points per user for comments, total for merges
	Applied []IssueAward // merge only
	Skipped []int        // merge only: unscored or already awarded issues
}

// AwardComment handles a "/award @user" comment. Denials and unscored
// issues are answered with a comment and reported as outcomes, not errors.
func (s *Service) AwardComment(ctx context.Context, c model.CommentAward) (Result, error) {
	if len(c.Targets) == 0 {
		s.logger.Info(ctx, "no /award targets found, skipping")
		return Result{Outcome: OutcomeNoop}, nil
	}
	if err := s.requireTracker(); err != nil {
		return Result{}, err
	}

	log := s.logger.With(
		logger.String("actor", c.Actor),
		logger.Int("issue", c.Issue),
		logger.Strings("targets", c.Targets),
	)

	if !award.HasAwardPermission(ctx, s.tracker, c.Actor) {
		metrics.RecordPermissionDenied()
		log.Warn(ctx, "actor has no permission to award")
		if c.Issue > 0 {
			if err := s.tracker.CreateIssueComment(ctx, c.Issue, denialMessage(c.Actor)); err != nil {
				return Result{}, fmt.Errorf("posting denial: %w", err)
			}
		}
		return Result{Outcome: OutcomeDenied}, nil
	}

	if c.Issue <= 0 {
		return Result{}, fmt.Errorf("%w: comment event has no issue number", ErrEventPayload)
	}
	if err := s.requireStore(); err != nil {
		return Result{}, err
	}

	issue, err := s.tracker.GetIssue(ctx, c.Issue)
	if err != nil {
		return Result{}, fmt.Errorf("fetching issue points: %w", err)
	}
	points := award.IssuePoints(issue.Labels)
	if points <= 0 {
		metrics.RecordAwardSkipped(metrics.TriggerComment, metrics.ReasonUnscored)
		log.Info(ctx, "issue has no points label")
		if err := s.tracker.CreateIssueComment(ctx, c.Issue, unscoredMessage); err != nil {
			return Result{}, fmt.Errorf("posting unscored notice: %w", err)
		}
		return Result{Outcome: OutcomeUnscored}, nil
	}

	l, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	l.CreditComment(c.Targets, points)
	if err := s.store.Save(ctx, l); err != nil {
		return Result{}, err
	}
	for range c.Targets {
		metrics.RecordAwardApplied(metrics.TriggerComment, points)
	}
	log.Info(ctx, "points awarded", logger.Int("points", points))

	if err := s.tracker.CreateIssueComment(ctx, c.Issue, commentConfirmation(c.Targets, points)); err != nil {
		return Result{}, fmt.Errorf("posting confirmation: %w", err)
	}
	return Result{Outcome: OutcomeAwarded, Users: c.Targets, Points: points}, nil
}

// AwardMerge credits the author of a merged pull request for every scored
// issue it links, once per (pr, issue, author).
func (s *Service) AwardMerge(ctx context.Context, m model.MergeAward) (Result, error) {
	log := s.logger.With(logger.Int("pr", m.PR), logger.String("author", m.Author))

	if !m.Merged {
		log.Info(ctx, "pull request not merged, skipping")
		return Result{Outcome: OutcomeNoop}, nil
	}
	if m.Author == "" {
		log.Error(ctx, "merged pull request has no author, skipping")
		return Result{Outcome: OutcomeNoop}, nil
	}
	if len(m.LinkedIssues) == 0 {
		log.Info(ctx, "no linked issues, skipping")
		return Result{Outcome: OutcomeNoop}, nil
	}
	if err := s.requireTracker(); err != nil {
		return Result{}, err
	}
	if err := s.requireStore(); err != nil {
		return Result{}, err
	}

	l, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Outcome: OutcomeNoop}
	now := s.now()
	for _, number := range m.LinkedIssues {
		issue, err := s.tracker.GetIssue(ctx, number)
		if err != nil {
			return Result{}, fmt.Errorf("fetching issue points: %w", err)
		}
		points := award.IssuePoints(issue.Labels)
		if points <= 0 {
			metrics.RecordAwardSkipped(metrics.TriggerMerge, metrics.ReasonUnscored)
			log.Info(ctx, "linked issue is unscored", logger.Int("issue", number))
			res.Skipped = append(res.Skipped, number)
			continue
		}
		if !l.CreditMerge(s.repository, m.PR, number, m.Author, points, now) {
			metrics.RecordAwardSkipped(metrics.TriggerMerge, metrics.ReasonAlreadyAwarded)
			log.Info(ctx, "issue already awarded for this pull request", logger.Int("issue", number))
			res.Skipped = append(res.Skipped, number)
			continue
		}
		metrics.RecordAwardApplied(metrics.TriggerMerge, points)
		res.Applied = append(res.Applied, IssueAward{Issue: number, Points: points})
		res.Points += points
	}

	if res.Points <= 0 {
		log.Info(ctx, "nothing to award")
		return res, nil
	}
	if err := s.store.Save(ctx, l); err != nil {
		return Result{}, err
	}
	res.Outcome = OutcomeAwarded
	res.Users = []string{m.Author}
	log.Info(ctx, "points awarded", logger.Int("points", res.Points), logger.Int("issues", len(res.Applied)))

	if err := s.tracker.CreateIssueComment(ctx, m.PR, mergeConfirmation(m.Author, res.Points, res.Applied)); err != nil {
		return Result{}, fmt.Errorf("posting merge summary: %w", err)
	}
	return res, nil
}

func (s *Service) requireTracker() error {
	if s.tracker == nil {
		return fmt.Errorf("%w: tracker", ErrNotConfigured)
	}
	return nil
}

func (s *Service) requireStore() error {
	if s.store == nil {
		return fmt.Errorf("%w: ledger store", ErrNotConfigured)
	}
	return nil
}

const unscoredMessage = "⛔️ This issue has no `Points: N` label, so no points can be awarded. " +
	"Add a points label first, then run `/award @user` again."

func denialMessage(actor string) string {
	return fmt.Sprintf("⛔️ @%s is not allowed to award points (write, maintain or admin permission required).", actor)
}

func commentConfirmation(users []string, points int) string {
	mentions := make([]string, len(users))
	for i, u := range users {
		mentions[i] = "@" + u
	}
	return fmt.Sprintf("✅ Awarded **%d** points to %s. The leaderboard will refresh automatically.",
		points, strings.Join(mentions, ", "))
}

func mergeConfirmation(author string, total int, applied []IssueAward) string {
	details := make([]string, len(applied))
	for i, a := range applied {
		details[i] = fmt.Sprintf("#%d (+%d)", a.Issue, a.Points)
	}
	return fmt.Sprintf("✅ Awarded **%d** points to @%s (linked %s). The leaderboard will refresh automatically.",
		total, author, strings.Join(details, ", "))
}
