// Package award extracts award facts from tracker text and decides who may
// grant points.
package award

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Whitespace as Unicode defines it. Go's \s is ASCII only; lineSpace
// excludes '\n' so an award command cannot span lines.
const (
	space     = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`
	lineSpace = `[\t\v\f\r\x{1c}-\x{1f}\x{85}\p{Z}]`
)

var (
	pointsLabelRe  = regexp.MustCompile(`(?i)^Points:\s*(\d+)\s*$`)
	questLabelRe   = regexp.MustCompile(`(?i)^Quest:\s*(.+)$`)
	awardLineRe    = regexp.MustCompile(`(?mi)^` + lineSpace + `*/award` + lineSpace + `+@([A-Za-z0-9-]+)` + lineSpace + `*$`)
	linkedIssuesRe = regexp.MustCompile(`(?i)(?:fixes|closes|resolves)` + space + `+#(\d+)`)
)

// ParsePoints returns the value of the first "Points: N" label. The scan
// stops at the first matching label even when its digits overflow, in which
// case ok is false.
func ParsePoints(labels []string) (points int, ok bool) {
	for _, name := range labels {
		m := pointsLabelRe.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// IssuePoints is ParsePoints with the unscored case folded to zero.
func IssuePoints(labels []string) int {
	n, ok := ParsePoints(labels)
	if !ok {
		return 0
	}
	return n
}

// ParseQuestType returns the value of the first "Quest: <type>" label.
func ParseQuestType(labels []string) (string, bool) {
	for _, name := range labels {
		m := questLabelRe.FindStringSubmatch(strings.TrimSpace(name))
		if m == nil {
			continue
		}
		if t := strings.TrimSpace(m[1]); t != "" {
			return t, true
		}
	}
	return "", false
}

// ExtractAwardTargets returns the users named by "/award @user" lines, each
// once, in first-seen order.
func ExtractAwardTargets(body string) []string {
	matches := awardLineRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		user := m[1]
		if _, dup := seen[user]; dup {
			continue
		}
		seen[user] = struct{}{}
		out = append(out, user)
	}
	return out
}

// ExtractLinkedIssues returns the issue numbers referenced by
// "fixes/closes/resolves #N", each once, in first-seen order. The reference
// must not touch a letter, digit or underscore on either side, in any script.
func ExtractLinkedIssues(body string) []int {
	matches := linkedIssuesRe.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(matches))
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		if !standsAlone(body, m[0], m[1]) {
			continue
		}
		n, err := strconv.Atoi(body[m[2]:m[3]])
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// standsAlone reports whether body[start:end] has no word rune directly
// before or after it. regexp's \b only knows ASCII word characters.
func standsAlone(body string, start, end int) bool {
	if r, _ := utf8.DecodeLastRuneInString(body[:start]); start > 0 && isWordRune(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(body[end:]); end < len(body) && isWordRune(r) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
