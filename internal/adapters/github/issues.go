package github

import (
	"context"
	"fmt"
	"net/url"
)

// Operation names used for request metrics.
const (
	OpGetIssue      = "get_issue"
	OpListIssues    = "list_issues"
	OpCreateComment = "create_comment"
	OpGetPermission = "get_permission"
)

const listIssuesPageLimit = 100

// ListIssuesOptions controls filtering for ListIssues.
type ListIssuesOptions struct {
	State   string // "open", "closed" or "all"
	PerPage int    // results per page, max 100
}

func (o ListIssuesOptions) query() string {
	q := url.Values{}
	if o.State != "" {
		q.Set("state", o.State)
	}
	perPage := o.PerPage
	if perPage <= 0 || perPage > listIssuesPageLimit {
		perPage = listIssuesPageLimit
	}
	q.Set("per_page", fmt.Sprint(perPage))
	return q.Encode()
}

// GetIssue retrieves a single issue by number.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.get(ctx, OpGetIssue, path, &issue); err != nil {
		return nil, fmt.Errorf("getting issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return &issue, nil
}

// ListIssues returns an iterator over a repository's issues, pull requests
// included.
func (c *Client) ListIssues(owner, repo string, opts ListIssuesOptions) *PageIterator[Issue] {
	path := fmt.Sprintf("/repos/%s/%s/issues?%s", owner, repo, opts.query())
	return list[Issue](c, OpListIssues, path)
}

// CreateIssueComment comments on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error) {
	var comment Comment
	request := struct {
		Body string `json:"body"`
	}{Body: body}
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	if err := c.post(ctx, OpCreateComment, path, request, &comment); err != nil {
		return nil, fmt.Errorf("creating comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return &comment, nil
}

// GetCollaboratorPermission returns login's permission level on the
// repository. Non-collaborators yield a 404 *APIError.
func (c *Client) GetCollaboratorPermission(ctx context.Context, owner, repo, login string) (string, error) {
	var perm CollaboratorPermission
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s/permission", owner, repo, url.PathEscape(login))
	if err := c.get(ctx, OpGetPermission, path, &perm); err != nil {
		return "", fmt.Errorf("getting permission of %s on %s/%s: %w", login, owner, repo, err)
	}
	return perm.Permission, nil
}
