package service

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/questboard/internal/domain/board"
	"github.com/okian/questboard/pkg/logger"
	"github.com/okian/questboard/pkg/metrics"
)

// Board names used in logs and metrics.
const (
	BoardLeaderboard = "leaderboard"
	BoardQuests      = "quests"
)

// LeaderboardOptions controls UpdateLeaderboard.
type LeaderboardOptions struct {
	ReadmePath string
	Top        int
	// FromTracker recomputes totals from closed issues instead of the ledger.
	FromTracker bool
}

// QuestOptions controls UpdateQuests.
type QuestOptions struct {
	ReadmePath string
	// Debug logs the decision taken for every issue.
	Debug bool
}

// BoardResult reports what a board update did.
type BoardResult struct {
	Changed bool
	Rows    int
}

// UpdateLeaderboard renders the leaderboard into the README between its
// markers. The README is rewritten only when the block changed.
func (s *Service) UpdateLeaderboard(ctx context.Context, opts LeaderboardOptions) (BoardResult, error) {
	totals, err := s.leaderboardTotals(ctx, opts.FromTracker)
	if err != nil {
		return BoardResult{}, err
	}

	top := opts.Top
	if top <= 0 {
		top = board.DefaultTop
	}
	entries := board.Rank(totals, top)
	rendered := board.RenderLeaderboard(entries, s.now())
	if err := board.CheckTables(rendered, board.LeaderboardRows(len(entries))); err != nil {
		return BoardResult{}, err
	}

	changed, err := s.spliceReadme(ctx, opts.ReadmePath, board.LeaderboardMarkers, rendered)
	if err != nil {
		return BoardResult{}, err
	}
	metrics.RecordBoardRender(BoardLeaderboard, changed)
	s.logger.Info(ctx, "leaderboard rendered",
		logger.Int("users", len(totals)),
		logger.Int("rows", len(entries)),
		logger.Bool("changed", changed),
	)
	return BoardResult{Changed: changed, Rows: len(entries)}, nil
}

func (s *Service) leaderboardTotals(ctx context.Context, fromTracker bool) (map[string]int, error) {
	if fromTracker {
		if err := s.requireTracker(); err != nil {
			return nil, err
		}
		issues, err := s.tracker.ListIssues(ctx, "closed")
		if err != nil {
			return nil, err
		}
		return board.TotalsFromIssues(issues), nil
	}

	if err := s.requireStore(); err != nil {
		return nil, err
	}
	l, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return l.Users, nil
}

// UpdateQuests renders open quests into the README between the quest
// markers. The README is rewritten only when the block changed.
func (s *Service) UpdateQuests(ctx context.Context, opts QuestOptions) (BoardResult, error) {
	if err := s.requireTracker(); err != nil {
		return BoardResult{}, err
	}
	issues, err := s.tracker.ListIssues(ctx, "open")
	if err != nil {
		return BoardResult{}, err
	}

	quests, decisions := board.SelectQuests(issues)
	if opts.Debug {
		for _, d := range decisions {
			s.logger.Info(ctx, "quest decision",
				logger.Int("issue", d.Number),
				logger.String("title", d.Title),
				logger.Strings("labels", d.Labels),
				logger.Bool("included", d.Included),
				logger.String("type", d.Type),
				logger.Int("points", d.Points),
				logger.String("reason", d.Reason),
			)
		}
	}

	rendered := board.RenderQuests(quests, s.now())
	if err := board.CheckTables(rendered, board.QuestRows(quests)); err != nil {
		return BoardResult{}, err
	}

	changed, err := s.spliceReadme(ctx, opts.ReadmePath, board.QuestMarkers, rendered)
	if err != nil {
		return BoardResult{}, err
	}
	metrics.RecordBoardRender(BoardQuests, changed)
	s.logger.Info(ctx, "quest board rendered",
		logger.Int("issues", len(issues)),
		logger.Int("quests", len(quests)),
		logger.Bool("changed", changed),
	)
	return BoardResult{Changed: changed, Rows: len(quests)}, nil
}

func (s *Service) spliceReadme(ctx context.Context, path string, m board.Markers, content string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := string(data)
	updated, err := board.Splice(doc, m, content)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if updated == doc {
		s.logger.Debug(ctx, "readme unchanged", logger.String("path", path))
		return false, nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
