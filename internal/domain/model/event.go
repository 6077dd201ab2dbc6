// Package model contains domain models passed between layers.
package model

// CommentAward is a "/award @user" comment left on an issue.
type CommentAward struct {
	Actor   string   // comment author, falls back to the workflow actor
	Targets []string // users named by award lines, deduplicated
	Issue   int      // issue the comment was left on, 0 when unknown
}

// MergeAward is a closed pull request event.
type MergeAward struct {
	PR           int
	Author       string
	Body         string
	Merged       bool
	LinkedIssues []int // issues referenced by fixes/closes/resolves
}

// Issue is the tracker view of an issue used for scoring and boards.
type Issue struct {
	Number        int
	Title         string
	URL           string
	State         string
	Labels        []string // label names in tracker order
	Author        string
	Assignees     []string
	IsPullRequest bool
}
