package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/questboard/internal/domain/model"
)

// Repository binds a Client to one owner/name pair and speaks domain types.
type Repository struct {
	client *Client
	owner  string
	name   string
}

// Repo returns a repository-scoped view of c. fullName is "owner/name".
func (c *Client) Repo(fullName string) (*Repository, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("github: repository must be owner/name (got %q)", fullName)
	}
	return &Repository{client: c, owner: owner, name: name}, nil
}

// FullName returns "owner/name".
func (r *Repository) FullName() string { return r.owner + "/" + r.name }

// GetIssue fetches issue number.
func (r *Repository) GetIssue(ctx context.Context, number int) (model.Issue, error) {
	issue, err := r.client.GetIssue(ctx, r.owner, r.name, number)
	if err != nil {
		return model.Issue{}, err
	}
	return toModel(issue), nil
}

// GetCollaboratorPermission returns login's permission level.
func (r *Repository) GetCollaboratorPermission(ctx context.Context, login string) (string, error) {
	return r.client.GetCollaboratorPermission(ctx, r.owner, r.name, login)
}

// CreateIssueComment posts body on issue or pull request number.
func (r *Repository) CreateIssueComment(ctx context.Context, number int, body string) error {
	_, err := r.client.CreateIssueComment(ctx, r.owner, r.name, number, body)
	return err
}

// ListIssues returns every issue and pull request in state, up to MaxPages
// pages of 100.
func (r *Repository) ListIssues(ctx context.Context, state string) ([]model.Issue, error) {
	issues, err := r.client.ListIssues(r.owner, r.name, ListIssuesOptions{State: state}).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing %s issues of %s: %w", state, r.FullName(), err)
	}
	out := make([]model.Issue, 0, len(issues))
	for i := range issues {
		out = append(out, toModel(&issues[i]))
	}
	return out, nil
}

func toModel(issue *Issue) model.Issue {
	assignees := make([]string, 0, len(issue.Assignees))
	for _, u := range issue.Assignees {
		if u.Login != "" {
			assignees = append(assignees, u.Login)
		}
	}
	return model.Issue{
		Number:        issue.Number,
		Title:         issue.Title,
		URL:           issue.HTMLURL,
		State:         issue.State,
		Labels:        issue.LabelNames(),
		Author:        issue.User.Login,
		Assignees:     assignees,
		IsPullRequest: issue.PullRequest != nil,
	}
}
