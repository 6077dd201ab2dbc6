package service

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/okian/questboard/internal/domain/award"
	"github.com/okian/questboard/internal/domain/model"
)

type eventUser struct {
	Login string `json:"login"`
}

// Event is the subset of a GitHub Actions event payload the award flows read.
type Event struct {
	Comment *struct {
		Body string    `json:"body"`
		User eventUser `json:"user"`
	} `json:"comment"`
	Issue *struct {
		Number int `json:"number"`
	} `json:"issue"`
	PullRequest *struct {
		Number int       `json:"number"`
		Merged bool      `json:"merged"`
		Body   string    `json:"body"`
		User   eventUser `json:"user"`
	} `json:"pull_request"`
}

// ReadEvent decodes the event payload at path.
func ReadEvent(path string) (*Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventPayload, err)
	}
	return ParseEvent(data)
}

// ParseEvent decodes an event payload.
func ParseEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventPayload, err)
	}
	return &e, nil
}

// CommentAward extracts the comment trigger. The actor falls back to
// fallbackActor when the payload carries no comment author.
func (e *Event) CommentAward(fallbackActor string) model.CommentAward {
	var c model.CommentAward
	if e.Comment != nil {
		c.Actor = strings.TrimSpace(e.Comment.User.Login)
		c.Targets = award.ExtractAwardTargets(e.Comment.Body)
	}
	if c.Actor == "" {
		c.Actor = strings.TrimSpace(fallbackActor)
	}
	if e.Issue != nil {
		c.Issue = e.Issue.Number
	}
	return c
}

// MergeAward extracts the pull request trigger.
func (e *Event) MergeAward() model.MergeAward {
	var m model.MergeAward
	if e.PullRequest == nil {
		return m
	}
	m.PR = e.PullRequest.Number
	m.Merged = e.PullRequest.Merged
	m.Author = strings.TrimSpace(e.PullRequest.User.Login)
	m.Body = e.PullRequest.Body
	m.LinkedIssues = award.ExtractLinkedIssues(m.Body)
	return m
}
