package board

import (
	"fmt"
	"strings"
)

// Markers delimit a generated block inside a document.
type Markers struct {
	Start string
	End   string
}

// Marker pairs for the two boards.
var (
	LeaderboardMarkers = Markers{Start: "<!-- LEADERBOARD:START -->", End: "<!-- LEADERBOARD:END -->"}
	QuestMarkers       = Markers{Start: "<!-- QUESTS:START -->", End: "<!-- QUESTS:END -->"}
)

// Splice replaces whatever sits between the first start marker and the
// first end marker after it with content, framed by single newlines.
// Text outside the markers is kept byte for byte.
func Splice(doc string, m Markers, content string) (string, error) {
	pre, rest, ok := strings.Cut(doc, m.Start)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingMarkers, m.Start)
	}
	_, post, ok := strings.Cut(rest, m.End)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingMarkers, m.End)
	}
	return pre + m.Start + "\n" + content + "\n" + m.End + post, nil
}
