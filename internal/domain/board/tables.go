package board

import (
	"fmt"
	"slices"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownOnce   sync.Once
	markdownParser goldmark.Markdown
)

func getMarkdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// TableRows parses markdown as GitHub-flavoured markdown and returns the
// number of body rows of each table, in document order.
func TableRows(markdown string) []int {
	source := []byte(markdown)
	doc := getMarkdownParser().Parser().Parse(text.NewReader(source))

	var rows []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != extast.KindTable {
			return ast.WalkContinue, nil
		}
		count := 0
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Kind() == extast.KindTableRow {
				count++
			}
		}
		rows = append(rows, count)
		return ast.WalkSkipChildren, nil
	})
	return rows
}

// CheckTables verifies that markdown renders to tables with exactly the
// given body row counts.
func CheckTables(markdown string, want []int) error {
	got := TableRows(markdown)
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: want rows %v, got %v", ErrBrokenTable, want, got)
	}
	return nil
}

// LeaderboardRows is the table shape RenderLeaderboard produces for entries.
func LeaderboardRows(entries int) []int {
	return []int{max(entries, 1)}
}

// QuestRows is the table shape RenderQuests produces for quests.
func QuestRows(quests []Quest) []int {
	groups := make(map[string][]Quest)
	for _, q := range quests {
		groups[q.Type] = append(groups[q.Type], q)
	}
	rows := make([]int, 0, len(groups))
	for _, typ := range orderedTypes(groups) {
		rows = append(rows, len(groups[typ]))
	}
	return rows
}
