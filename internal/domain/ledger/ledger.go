// Package ledger holds the points database value and its additive mutations.
// Persistence lives in the repository adapter; this package never touches disk.
package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout formats AwardRecord.TS, e.g. "2024-06-01 12:00:00 UTC".
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// AwardRecord is the audit entry written for every merge-driven credit.
// Fields are declared in key order so the encoded object is sorted.
type AwardRecord struct {
	Issue  int    `json:"issue"`
	Points int    `json:"points"`
	PR     int    `json:"pr"`
	Repo   string `json:"repo"`
	TS     string `json:"ts"`
	User   string `json:"user"`
}

// Ledger maps users to cumulative points and records which merge awards
// were already applied.
type Ledger struct {
	Users  map[string]int
	Awards map[string]AwardRecord

	// Raw holds award records exactly as they were read. Records listed
	// here are written back unchanged; Awards only decides membership.
	Raw map[string]json.RawMessage
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		Users:  make(map[string]int),
		Awards: make(map[string]AwardRecord),
	}
}

// AwardKey is the idempotency key for one merge award.
func AwardKey(pr, issue int, user string) string {
	return fmt.Sprintf("pr:%d:issue:%d:user:%s", pr, issue, user)
}

// Points returns the user's total, zero when unknown.
func (l *Ledger) Points(user string) int {
	return l.Users[user]
}

// CreditComment adds points to every target. It writes no award record, so
// a redelivered comment credits again.
func (l *Ledger) CreditComment(targets []string, points int) {
	if points <= 0 {
		return
	}
	l.ensure()
	for _, user := range targets {
		l.Users[user] += points
	}
}

// CreditMerge credits user for issue once per (pr, issue, user). It returns
// false without touching the ledger when the award key already exists.
func (l *Ledger) CreditMerge(repo string, pr, issue int, user string, points int, now time.Time) bool {
	if points <= 0 {
		return false
	}
	l.ensure()
	key := AwardKey(pr, issue, user)
	if _, done := l.Awards[key]; done {
		return false
	}
	l.Users[user] += points
	l.Awards[key] = AwardRecord{
		Issue:  issue,
		Points: points,
		PR:     pr,
		Repo:   repo,
		TS:     now.UTC().Format(TimestampLayout),
		User:   user,
	}
	return true
}

func (l *Ledger) ensure() {
	if l.Users == nil {
		l.Users = make(map[string]int)
	}
	if l.Awards == nil {
		l.Awards = make(map[string]AwardRecord)
	}
}
