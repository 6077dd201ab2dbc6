package board

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/questboard/internal/domain/award"
	"github.com/okian/questboard/internal/domain/model"
)

// Well-known quest types, rendered in this order before any others.
const (
	TypeLearning  = "Learning"
	TypeCoding    = "Coding"
	TypePromotion = "Promotion"
)

var (
	typeOrder    = []string{TypeLearning, TypeCoding, TypePromotion}
	typeHeadings = map[string]string{
		TypeLearning:  "📚 Learning",
		TypeCoding:    "💻 Coding",
		TypePromotion: "📢 Promotion",
	}
	titlePrefixes = []string{"[Quest]", "[任务]"}
	titleKeywords = []struct {
		typ      string
		keywords []string
	}{
		{TypeLearning, []string{"learning", "学习"}},
		{TypeCoding, []string{"coding", "编程", "代码"}},
		{TypePromotion, []string{"promotion", "推广"}},
	}
)

// Quest is one open issue shown on the quest board.
type Quest struct {
	Number int
	Title  string
	Type   string
	Points int
	URL    string
}

// Decision explains why an issue was or was not listed.
type Decision struct {
	Number   int
	Title    string
	Labels   []string
	Included bool
	Type     string
	Points   int
	Reason   string
}

// Decision reasons.
const (
	ReasonPullRequest = "pull request"
	ReasonNoQuestType = "no quest type label and title is not a quest"
	ReasonWrongStatus = "status label is not open"
	ReasonTypeLabel   = "quest type from label"
	ReasonTypeTitle   = "quest type from title"
)

// SelectQuests picks quests out of open issues. An issue qualifies through a
// "Quest: <type>" label or a title starting with a quest prefix, in which
// case the type is guessed from title keywords and defaults to Coding.
// Issues with a "Status:" label other than "Status: Open" are skipped.
// Points default to zero.
func SelectQuests(issues []model.Issue) ([]Quest, []Decision) {
	var quests []Quest
	decisions := make([]Decision, 0, len(issues))
	for _, issue := range issues {
		d := Decision{Number: issue.Number, Title: strings.TrimSpace(issue.Title), Labels: issue.Labels}
		if issue.IsPullRequest {
			d.Reason = ReasonPullRequest
			decisions = append(decisions, d)
			continue
		}

		typ, ok := award.ParseQuestType(issue.Labels)
		d.Reason = ReasonTypeLabel
		if !ok {
			if !hasQuestPrefix(d.Title) {
				d.Reason = ReasonNoQuestType
				decisions = append(decisions, d)
				continue
			}
			typ = typeFromTitle(d.Title)
			d.Reason = ReasonTypeTitle
		}
		d.Type = typ

		if !statusOpen(issue.Labels) {
			d.Reason = ReasonWrongStatus
			decisions = append(decisions, d)
			continue
		}

		d.Points = award.IssuePoints(issue.Labels)
		d.Included = true
		decisions = append(decisions, d)
		quests = append(quests, Quest{
			Number: issue.Number,
			Title:  d.Title,
			Type:   typ,
			Points: d.Points,
			URL:    issue.URL,
		})
	}
	return quests, decisions
}

func hasQuestPrefix(title string) bool {
	for _, p := range titlePrefixes {
		if strings.HasPrefix(title, p) {
			return true
		}
	}
	return false
}

func typeFromTitle(title string) string {
	lower := strings.ToLower(title)
	for _, tk := range titleKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				return tk.typ
			}
		}
	}
	return TypeCoding
}

// statusOpen is false only when a "Status:" label exists and none of them
// is "Status: Open".
func statusOpen(labels []string) bool {
	hasStatus := false
	for _, l := range labels {
		name := strings.ToLower(strings.TrimSpace(l))
		if name == "status: open" {
			return true
		}
		if strings.HasPrefix(name, "status:") {
			hasStatus = true
		}
	}
	return !hasStatus
}

// RenderQuests renders quests grouped by type, each group sorted by points
// descending then issue number.
func RenderQuests(quests []Quest, now time.Time) string {
	lines := []string{"## 📋 Quest Board (auto-updated)", ""}
	if len(quests) == 0 {
		lines = append(lines, "> No open quests right now, check back later!", "", footer(now))
		return strings.Join(lines, "\n")
	}

	groups := make(map[string][]Quest)
	for _, q := range quests {
		groups[q.Type] = append(groups[q.Type], q)
	}

	for _, typ := range orderedTypes(groups) {
		group := groups[typ]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Points != group[j].Points {
				return group[i].Points > group[j].Points
			}
			return group[i].Number < group[j].Number
		})

		heading, ok := typeHeadings[typ]
		if !ok {
			heading = typ
		}
		lines = append(lines,
			"### "+heading,
			"",
			"| Quest | Points | Link |",
			"| :--- | ---: | :--- |",
		)
		for _, q := range group {
			lines = append(lines, fmt.Sprintf("| %s | %d XP | [#%d](%s) |", displayTitle(q.Title), q.Points, q.Number, q.URL))
		}
		lines = append(lines, "")
	}
	lines = append(lines, footer(now))
	return strings.Join(lines, "\n")
}

func orderedTypes(groups map[string][]Quest) []string {
	out := make([]string, 0, len(groups))
	known := make(map[string]struct{}, len(typeOrder))
	for _, typ := range typeOrder {
		known[typ] = struct{}{}
		if _, ok := groups[typ]; ok {
			out = append(out, typ)
		}
	}
	var others []string
	for typ := range groups {
		if _, ok := known[typ]; !ok {
			others = append(others, typ)
		}
	}
	sort.Strings(others)
	return append(out, others...)
}

// displayTitle strips a quest prefix and keeps the title on one table cell.
func displayTitle(title string) string {
	for _, p := range titlePrefixes {
		if rest, ok := strings.CutPrefix(title, p); ok {
			title = strings.TrimSpace(rest)
			break
		}
	}
	return cellEscaper.Replace(title)
}

var cellEscaper = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "|", `\|`)
