package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient creates a Client backed by the given TLS test server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		UserAgent:  "questboard-test",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_HTTPSEnforcement(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://api.github.com", Token: "test"})
	if err == nil {
		t.Fatal("expected error for HTTP URL")
	}
	if got := err.Error(); got != `github: API client requires HTTPS (got "http://api.github.com")` {
		t.Errorf("unexpected error: %s", got)
	}
}

func TestNewClient_NoToken(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "https://api.github.com"}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestClient_StandardHeaders(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"Authorization":        "Bearer test-token",
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": "2022-11-28",
			"User-Agent":           "questboard-test",
		}
		for header, want := range checks {
			if got := r.Header.Get(header); got != want {
				t.Errorf("%s = %q, want %q", header, got, want)
			}
		}
		_, _ = w.Write([]byte(`{"number": 1}`))
	}))
	defer server.Close()

	if _, err := newTestClient(t, server).GetIssue(context.Background(), "acme", "quests", 1); err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
}

func TestClient_GetIssue(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/quests/issues/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"number": 42,
			"title": "[Quest] Write docs",
			"state": "open",
			"user": {"login": "alice"},
			"labels": [{"name": "Points: 50"}, {"name": "Quest: Learning"}],
			"assignees": [{"login": "bob"}]
		}`))
	}))
	defer server.Close()

	issue, err := newTestClient(t, server).GetIssue(context.Background(), "acme", "quests", 42)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if issue.Number != 42 || issue.User.Login != "alice" {
		t.Errorf("unexpected issue: %+v", issue)
	}
	if got := issue.LabelNames(); len(got) != 2 || got[0] != "Points: 50" {
		t.Errorf("unexpected labels: %v", got)
	}
	if issue.PullRequest != nil {
		t.Error("expected a plain issue")
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found", "documentation_url": "https://docs.github.com"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).GetIssue(context.Background(), "acme", "quests", 404)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiError *APIError
	if !errors.As(err, &apiError) || apiError.Message != "Not Found" {
		t.Errorf("unexpected api error: %v", err)
	}
}

func TestClient_APIErrorPlainBody(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).GetIssue(context.Background(), "acme", "quests", 1)
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiError.StatusCode != http.StatusBadGateway || apiError.Message != "upstream down" {
		t.Errorf("unexpected api error: %+v", apiError)
	}
	if IsNotFound(err) {
		t.Error("502 is not a not-found error")
	}
}

func TestClient_CreateIssueComment(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/acme/quests/issues/7/comments" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var payload struct {
			Body string `json:"body"`
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if payload.Body != "hello" {
			t.Errorf("unexpected comment body %q", payload.Body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 9, "body": "hello"}`))
	}))
	defer server.Close()

	comment, err := newTestClient(t, server).CreateIssueComment(context.Background(), "acme", "quests", 7, "hello")
	if err != nil {
		t.Fatalf("CreateIssueComment: %v", err)
	}
	if comment.ID != 9 {
		t.Errorf("unexpected comment %+v", comment)
	}
}

func TestClient_GetCollaboratorPermission(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/quests/collaborators/alice/permission" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"permission": "maintain", "user": {"login": "alice"}}`))
	}))
	defer server.Close()

	perm, err := newTestClient(t, server).GetCollaboratorPermission(context.Background(), "acme", "quests", "alice")
	if err != nil {
		t.Fatalf("GetCollaboratorPermission: %v", err)
	}
	if perm != "maintain" {
		t.Errorf("got %q, want maintain", perm)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		Timeout:    50 * time.Millisecond,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.GetIssue(context.Background(), "acme", "quests", 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestListIssues_FollowsLinkHeaders(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "100" || r.URL.Query().Get("state") != "closed" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/quests/issues?state=closed&per_page=100&page=2>; rel="next"`, server.URL))
			_, _ = w.Write([]byte(`[{"number": 1}, {"number": 2, "pull_request": {"url": "x"}}]`))
		case "2":
			_, _ = w.Write([]byte(`[{"number": 3}]`))
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	issues, err := newTestClient(t, server).ListIssues("acme", "quests", ListIssuesOptions{State: "closed"}).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 items, got %d", len(issues))
	}
	if issues[1].PullRequest == nil {
		t.Error("expected second item to be marked as a pull request")
	}
}

func TestListIssues_PageCap(t *testing.T) {
	var requests atomic.Int32
	var server *httptest.Server
	server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/quests/issues?page=%d>; rel="next"`, server.URL, n+1))
		_, _ = w.Write([]byte(fmt.Sprintf(`[{"number": %d}]`, n)))
	}))
	defer server.Close()

	issues, err := newTestClient(t, server).ListIssues("acme", "quests", ListIssuesOptions{State: "open"}).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := requests.Load(); got != MaxPages {
		t.Errorf("expected %d requests, got %d", MaxPages, got)
	}
	if len(issues) != MaxPages {
		t.Errorf("expected %d issues, got %d", MaxPages, len(issues))
	}
}

func TestListIssues_EmptyPageStops(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/next>; rel="next"`, server.URL))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	issues, err := newTestClient(t, server).ListIssues("acme", "quests", ListIssuesOptions{}).Collect(context.Background())
	if err != nil || len(issues) != 0 {
		t.Fatalf("expected no issues and no error, got %d, %v", len(issues), err)
	}
}

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "empty header", header: "", expected: ""},
		{
			name:     "next and last",
			header:   `<https://api.github.com/repos/o/r/issues?page=2>; rel="next", <https://api.github.com/repos/o/r/issues?page=5>; rel="last"`,
			expected: "https://api.github.com/repos/o/r/issues?page=2",
		},
		{
			name:     "only last",
			header:   `<https://api.github.com/repos/o/r/issues?page=1>; rel="last"`,
			expected: "",
		},
		{
			name:     "prev before next",
			header:   `<https://api.github.com/repos/o/r/issues?page=1>; rel="prev", <https://api.github.com/repos/o/r/issues?page=3>; rel="next"`,
			expected: "https://api.github.com/repos/o/r/issues?page=3",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := parseLinkNext(test.header); got != test.expected {
				t.Errorf("got %q, want %q", got, test.expected)
			}
		})
	}
}

func TestRepository(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/issues/5"):
			_, _ = w.Write([]byte(`{"number": 5, "title": "t", "user": {"login": "amy"}, "labels": [{"name": "Points: 30"}], "assignees": [{"login": "bob"}, {"login": ""}]}`))
		case strings.HasSuffix(r.URL.Path, "/issues"):
			_, _ = w.Write([]byte(`[{"number": 1}, {"number": 2, "pull_request": {"url": "x"}}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	if _, err := newTestClient(t, server).Repo("acme"); err == nil {
		t.Error("expected error for repository without owner")
	}
	repo, err := newTestClient(t, server).Repo("acme/quests")
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if repo.FullName() != "acme/quests" {
		t.Errorf("unexpected full name %s", repo.FullName())
	}

	issue, err := repo.GetIssue(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if issue.Author != "amy" || len(issue.Assignees) != 1 || issue.Labels[0] != "Points: 30" {
		t.Errorf("unexpected issue %+v", issue)
	}

	issues, err := repo.ListIssues(context.Background(), "closed")
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 || issues[0].IsPullRequest || !issues[1].IsPullRequest {
		t.Errorf("unexpected issues %+v", issues)
	}
}
