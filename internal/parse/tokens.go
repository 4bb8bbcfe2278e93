package parse

import (
	"strconv"
	"strings"

	"github.com/DaveBC/pairings/internal/pairing"
)

// tokenize splits a line into whitespace-delimited tokens after stripping
// colon characters. The extractor emits colons inconsistently, so they carry
// no information.
func tokenize(line string) []string {
	return strings.Fields(strings.ReplaceAll(line, ":", ""))
}

// Token shape predicates. Each returns whether a token already has the
// expected shape; the cursor applies merge recovery when one fails.

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func digitsN(n int) func(string) bool {
	return func(s string) bool { return len(s) == n && isDigits(s) }
}

func digitsBetween(min, max int) func(string) bool {
	return func(s string) bool { return len(s) >= min && len(s) <= max && isDigits(s) }
}

func lengthIs(n int) func(string) bool {
	return func(s string) bool { return len(s) == n }
}

func isAirport(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func isEquipment(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// isCalendarDay reports whether a token is a bare day-of-month digit string
// as printed in the calendar grid ("1".."31", no leading zeros).
func isCalendarDay(s string) bool {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > 31 {
		return false
	}
	return s == strconv.Itoa(v)
}

// cursor walks a token list with single-token merge recovery. When a token
// fails its shape test, the following token is merged into it and the merged
// token re-tested once; exhausting that raises a hard failure carrying the
// pairing id and field.
type cursor struct {
	id   string
	toks []string
	pos  int
}

// take returns the next token if it (or its single-merge recovery) satisfies
// ok, advancing past whatever was consumed.
func (c *cursor) take(field, expected string, ok func(string) bool) (string, error) {
	if c.pos >= len(c.toks) {
		return "", pairing.Errorf(c.id, field, expected, "end of line")
	}
	tok := c.toks[c.pos]
	if ok(tok) {
		c.pos++
		return tok, nil
	}
	if c.pos+1 < len(c.toks) {
		if merged := tok + c.toks[c.pos+1]; ok(merged) {
			c.pos += 2
			return merged, nil
		}
	}
	return "", pairing.Errorf(c.id, field, expected, tok)
}

// peek returns the next token without consuming it.
func (c *cursor) peek() (string, bool) {
	if c.pos >= len(c.toks) {
		return "", false
	}
	return c.toks[c.pos], true
}
