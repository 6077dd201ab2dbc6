package github

// User is a GitHub user reference.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// Label is a GitHub issue/PR label.
type Label struct {
	Name string `json:"name"`
}

// Issue is a GitHub issue. The issues endpoints also return pull requests;
// those carry a non-nil PullRequest marker.
type Issue struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	State       string          `json:"state"` // "open" or "closed"
	HTMLURL     string          `json:"html_url"`
	User        User            `json:"user"`
	Labels      []Label         `json:"labels"`
	Assignees   []User          `json:"assignees"`
	PullRequest *PullRequestRef `json:"pull_request,omitempty"`
}

// PullRequestRef marks an issues-endpoint item as a pull request.
type PullRequestRef struct {
	URL string `json:"url"`
}

// Comment is a GitHub issue or PR comment.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

// CollaboratorPermission is the body of the collaborator permission endpoint.
type CollaboratorPermission struct {
	Permission string `json:"permission"` // "admin", "maintain", "write", "triage", "read" or "none"
	User       User   `json:"user"`
}

// LabelNames returns label names in tracker order.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}
