// Package board renders the leaderboard and quest board blocks that are
// spliced into the README.
package board

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/questboard/internal/domain/award"
	"github.com/okian/questboard/internal/domain/model"
	"github.com/okian/questboard/internal/domain/types"
	"golang.org/x/text/cases"
)

// FooterLayout formats the "Last updated" footer timestamp.
const FooterLayout = "2006-01-02 15:04 UTC"

// DefaultTop is how many users the leaderboard shows by default.
const DefaultTop = 20

var rankGlyphs = [...]string{"🥇", "🥈", "🥉"}

var medalTiers = []struct {
	min  int
	name string
}{
	{1500, "🌟 Architect"},
	{1200, "🚀 Explorer"},
	{800, "🔥 Contributor"},
	{300, "✨ Rising Star"},
}

// Medal returns the badge for a points total, empty below the lowest tier.
func Medal(points int) string {
	for _, t := range medalTiers {
		if points >= t.min {
			return t.name
		}
	}
	return ""
}

// Rank orders totals by points descending, then by case-folded name, and
// keeps the first top entries. top <= 0 keeps everything.
func Rank(totals map[string]int, top int) []types.Entry {
	fold := cases.Fold()
	type keyed struct {
		entry  types.Entry
		folded string
	}
	rows := make([]keyed, 0, len(totals))
	for user, points := range totals {
		rows = append(rows, keyed{
			entry:  types.Entry{User: user, Points: points},
			folded: fold.String(user),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.entry.Points != b.entry.Points {
			return a.entry.Points > b.entry.Points
		}
		if a.folded != b.folded {
			return a.folded < b.folded
		}
		return a.entry.User < b.entry.User
	})
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	out := make([]types.Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
		out[i].Rank = i + 1
	}
	return out
}

// RenderLeaderboard renders ranked entries as a markdown table with a
// heading and an update footer.
func RenderLeaderboard(entries []types.Entry, now time.Time) string {
	lines := []string{
		"## 🏆 Contributor Leaderboard (auto-updated)",
		"",
		"| Rank | Developer | Total XP | Badge |",
		"| :--- | :--- | ---: | :--- |",
	}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("| %s | @%s | %d | %s |", rankLabel(e.Rank), e.User, e.Points, Medal(e.Points)))
	}
	if len(entries) == 0 {
		lines = append(lines, "| - | - | 0 | |")
	}
	lines = append(lines, "", footer(now))
	return strings.Join(lines, "\n")
}

func rankLabel(rank int) string {
	if rank >= 1 && rank <= len(rankGlyphs) {
		return rankGlyphs[rank-1]
	}
	return strconv.Itoa(rank)
}

func footer(now time.Time) string {
	return fmt.Sprintf("> Last updated: %s (generated by GitHub Actions)", now.UTC().Format(FooterLayout))
}

// TotalsFromIssues recomputes totals from closed issues instead of the
// ledger. Each scored issue's points are split evenly among its unique
// assignees, rounding down; unassigned issues credit their author. Pull
// requests, open issues and unlabelled issues are ignored.
func TotalsFromIssues(issues []model.Issue) map[string]int {
	totals := make(map[string]int)
	for _, issue := range issues {
		if issue.IsPullRequest || !strings.EqualFold(issue.State, "closed") {
			continue
		}
		points, ok := award.ParsePoints(issue.Labels)
		if !ok {
			continue
		}
		owners := creditedUsers(issue)
		if len(owners) == 0 {
			continue
		}
		share := points / len(owners)
		if share <= 0 {
			continue
		}
		for _, u := range owners {
			totals[u] += share
		}
	}
	return totals
}

func creditedUsers(issue model.Issue) []string {
	seen := make(map[string]struct{}, len(issue.Assignees))
	owners := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		owners = append(owners, a)
	}
	sort.Strings(owners)
	if len(owners) == 0 && issue.Author != "" {
		owners = append(owners, issue.Author)
	}
	return owners
}
