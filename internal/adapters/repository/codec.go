package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/questboard/internal/domain/ledger"
	"github.com/tidwall/jsonc"
)

// document is the canonical on-disk shape. Fields are declared in key order.
type document struct {
	Awards map[string]json.RawMessage `json:"awards"`
	Users  map[string]userPoints         `json:"users"`
}

type userPoints struct {
	Points int `json:"points"`
}

// Decode parses a ledger file. It accepts the canonical
// {"users":{u:{"points":n}},"awards":{...}} shape and the legacy flat
// {u: n} shape, with comments and trailing commas stripped first. Empty
// input is an empty ledger.
func Decode(data []byte) (*ledger.Ledger, error) {
	l := ledger.New()
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return l, nil
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(stripped, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedLedger)
	}

	var users map[string]json.RawMessage
	if raw, ok := root["users"]; ok && json.Unmarshal(raw, &users) == nil && users != nil {
		for name, value := range users {
			var entry map[string]json.RawMessage
			if json.Unmarshal(value, &entry) != nil || entry == nil {
				continue
			}
			l.Users[name] = pointsValue(entry["points"])
		}
		decodeAwards(root["awards"], l)
		return l, nil
	}

	for name, value := range root {
		if n, ok := parsePoints(value); ok {
			l.Users[name] = n
		}
	}
	return l, nil
}

func decodeAwards(raw json.RawMessage, l *ledger.Ledger) {
	var awards map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &awards) != nil {
		return
	}
	l.Raw = make(map[string]json.RawMessage, len(awards))
	for key, value := range awards {
		var rec ledger.AwardRecord
		// A record that fails to decode still marks its key as awarded.
		_ = json.Unmarshal(value, &rec)
		l.Awards[key] = rec
		l.Raw[key] = value
	}
}

// pointsValue reads a stored points value, treating absent or unreadable
// values as zero.
func pointsValue(raw json.RawMessage) int {
	n, _ := parsePoints(raw)
	return n
}

// parsePoints accepts a JSON number or a string of digits. Negative values
// clamp to zero and fractions truncate.
func parsePoints(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return 0, false
	}

	if n, err := strconv.Atoi(text); err == nil {
		return max(n, 0), true
	}
	if _, isString := v.(string); isString {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 {
		return 0, false
	}
	return max(int(f), 0), true
}

// Encode renders l in the canonical shape: sorted keys, two-space indent,
// trailing newline. Award records read from disk keep their original fields
// and values; only records added since are encoded from AwardRecord.
func Encode(l *ledger.Ledger) ([]byte, error) {
	doc := document{
		Awards: make(map[string]json.RawMessage, len(l.Awards)),
		Users:  make(map[string]userPoints, len(l.Users)),
	}
	for key, rec := range l.Awards {
		if raw, ok := l.Raw[key]; ok && json.Valid(raw) {
			doc.Awards[key] = raw
			continue
		}
		raw, err := marshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("encode award %s: %w", key, err)
		}
		doc.Awards[key] = raw
	}
	for name, points := range l.Users {
		doc.Users[name] = userPoints{Points: points}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalRecord(rec ledger.AwardRecord) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
