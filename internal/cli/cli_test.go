package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	service "github.com/okian/questboard/internal/app"
	"github.com/okian/questboard/internal/config"
	"github.com/okian/questboard/internal/domain/board"
	. "github.com/smartystreets/goconvey/convey"
)

var envVars = []string{
	"QUESTBOARD_CONFIG",
	"QUESTBOARD_LOG_LEVEL",
	"QUESTBOARD_PUSHGATEWAY_URL",
	"GITHUB_REPOSITORY",
	"GITHUB_TOKEN",
	"GITHUB_EVENT_PATH",
	"GITHUB_ACTOR",
	"GITHUB_API_URL",
	"LEADERBOARD_DB",
}

const readme = "# Project\n\n<!-- LEADERBOARD:START -->\n<!-- LEADERBOARD:END -->\n\n<!-- QUESTS:START -->\n<!-- QUESTS:END -->\n"

// isolateEnv clears every variable the loader reads and restores them
// when the test ends.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(opts *RootOptions, args ...string) (string, error) {
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// newGitHubServer serves one scored issue, one open quest, and records
// posted comments.
func newGitHubServer(t *testing.T, comments *[]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/quests/issues/5", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"number":5,"state":"open","labels":[{"name":"Points: 30"}]}`)
	})
	mux.HandleFunc("POST /repos/acme/quests/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*comments = append(*comments, string(body))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})
	mux.HandleFunc("GET /repos/acme/quests/issues", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"number":1,"state":"open","title":"[Quest] Learn Go","html_url":"https://github.com/acme/quests/issues/1","labels":[{"name":"Points: 50"}]}]`)
	})
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRootCommand(t *testing.T) {
	Convey("Given the root command", t, func() {
		isolateEnv(t)

		Convey("When asked for its version", func() {
			out, err := execute(&RootOptions{}, "--version")

			Convey("Then it should print name and version", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "questboard dev\n")
			})
		})

		Convey("When given an unknown flag", func() {
			_, err := execute(&RootOptions{}, "board", "leaderboard", "--nope")

			Convey("Then it should be a usage error", func() {
				So(errors.Is(err, ErrUsage), ShouldBeTrue)
				So(ExitCode(err), ShouldEqual, ExitConfig)
			})
		})
	})
}

func TestAwardCommands(t *testing.T) {
	Convey("Given the award commands", t, func() {
		isolateEnv(t)
		ledgerPath := filepath.Join(t.TempDir(), "data", "leaderboard.json")

		Convey("When the Actions environment is missing", func() {
			out, err := execute(&RootOptions{}, "award", "comment")

			Convey("Then it should fail as misconfiguration", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(ExitCode(err), ShouldEqual, ExitConfig)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When the event payload is not JSON", func() {
			t.Setenv("GITHUB_REPOSITORY", "acme/quests")
			t.Setenv("GITHUB_TOKEN", "test-token")
			t.Setenv("GITHUB_EVENT_PATH", writeFile(t, "event.json", "{broken"))
			t.Setenv("LEADERBOARD_DB", ledgerPath)
			_, err := execute(&RootOptions{}, "award", "comment")

			Convey("Then it should exit with the configuration status", func() {
				So(errors.Is(err, service.ErrEventPayload), ShouldBeTrue)
				So(ExitCode(err), ShouldEqual, ExitConfig)
			})
		})

		Convey("When a comment has no /award lines", func() {
			t.Setenv("GITHUB_REPOSITORY", "acme/quests")
			t.Setenv("GITHUB_TOKEN", "test-token")
			t.Setenv("GITHUB_EVENT_PATH", writeFile(t, "event.json", `{"comment":{"body":"thanks!","user":{"login":"alice"}},"issue":{"number":1}}`))
			t.Setenv("LEADERBOARD_DB", ledgerPath)
			out, err := execute(&RootOptions{}, "award", "comment")

			Convey("Then it should succeed without touching the ledger", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "nothing to award\n")
				_, statErr := os.Stat(ledgerPath)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When a merged pull request links a scored issue", func() {
			var comments []string
			server := newGitHubServer(t, &comments)
			t.Setenv("GITHUB_REPOSITORY", "acme/quests")
			t.Setenv("GITHUB_TOKEN", "test-token")
			t.Setenv("GITHUB_API_URL", server.URL)
			t.Setenv("GITHUB_EVENT_PATH", writeFile(t, "event.json", `{"pull_request":{"number":7,"merged":true,"body":"Fixes #5","user":{"login":"carol"}}}`))
			t.Setenv("LEADERBOARD_DB", ledgerPath)
			out, err := execute(&RootOptions{httpClient: server.Client()}, "award", "merge")

			Convey("Then the author should be credited and told", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "awarded 30 points to @carol for #5\n")
				So(comments, ShouldHaveLength, 1)

				data, readErr := os.ReadFile(ledgerPath)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"pr:7:issue:5:user:carol"`)
			})
		})
	})
}

func TestBoardCommands(t *testing.T) {
	Convey("Given the board commands", t, func() {
		isolateEnv(t)
		readmePath := writeFile(t, "README.md", readme)

		Convey("When rendering the leaderboard from a ledger file", func() {
			ledger := writeFile(t, "leaderboard.json", `{"awards":{},"users":{"bob":{"points":1300}}}`)
			out, err := execute(&RootOptions{}, "board", "leaderboard", "--from-json", ledger, "--readme", readmePath)

			Convey("Then the README block should be rewritten", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "leaderboard updated (1 rows)\n")
				data, _ := os.ReadFile(readmePath)
				So(string(data), ShouldContainSubstring, "| 🥇 | @bob | 1300 | 🚀 Explorer |")
			})

			Convey("And a second run in the same minute should leave it alone", func() {
				out, err := execute(&RootOptions{}, "board", "leaderboard", "--from-json", ledger, "--readme", readmePath)
				So(err, ShouldBeNil)
				So(strings.HasPrefix(out, "leaderboard "), ShouldBeTrue)
			})
		})

		Convey("When the README has no markers", func() {
			bare := writeFile(t, "BARE.md", "# nothing\n")
			_, err := execute(&RootOptions{}, "board", "leaderboard", "--readme", bare, "--from-json", filepath.Join(t.TempDir(), "none.json"))

			Convey("Then it should fail with exit status 1", func() {
				So(errors.Is(err, board.ErrMissingMarkers), ShouldBeTrue)
				So(ExitCode(err), ShouldEqual, ExitFailed)
			})
		})

		Convey("When --top is not positive", func() {
			_, err := execute(&RootOptions{}, "board", "leaderboard", "--readme", readmePath, "--top", "0")
			So(errors.Is(err, ErrUsage), ShouldBeTrue)
		})

		Convey("When rendering quests from GitHub", func() {
			server := newGitHubServer(t, new([]string))
			t.Setenv("GITHUB_TOKEN", "test-token")
			t.Setenv("GITHUB_API_URL", server.URL)
			out, err := execute(&RootOptions{httpClient: server.Client()}, "board", "quests", "--repo", "acme/quests", "--readme", readmePath, "--debug")

			Convey("Then open quests should be listed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "quests updated (1 rows)\n")
				data, _ := os.ReadFile(readmePath)
				So(string(data), ShouldContainSubstring, "| Learn Go | 50 XP |")
			})
		})

		Convey("When rendering quests without a token", func() {
			_, err := execute(&RootOptions{}, "board", "quests", "--repo", "acme/quests", "--readme", readmePath)
			So(ExitCode(err), ShouldEqual, ExitConfig)
		})
	})
}

func TestExitCode(t *testing.T) {
	Convey("Given errors of each kind", t, func() {
		So(ExitCode(nil), ShouldEqual, ExitOK)
		So(ExitCode(fmt.Errorf("wrap: %w", config.ErrInvalidConfig)), ShouldEqual, ExitConfig)
		So(ExitCode(fmt.Errorf("wrap: %w", config.ErrLoadConfig)), ShouldEqual, ExitConfig)
		So(ExitCode(fmt.Errorf("wrap: %w", service.ErrEventPayload)), ShouldEqual, ExitConfig)
		So(ExitCode(errors.New("github: HTTP 502: bad gateway")), ShouldEqual, ExitFailed)
	})
}
