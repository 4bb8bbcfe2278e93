// Package segment turns the raw extracted text of a pairing document into
// per-pairing line blocks. It also owns the document title check, since a
// document whose first line does not match the title grammar is rejected
// before any segmentation happens.
package segment

import (
	"regexp"
	"strings"

	"github.com/DaveBC/pairings/internal/pairing"
)

// titleRe matches the document header line, e.g.
// "May 2023 Pilot AA Pairings - Bid Package". The extractor is known to
// misspell October as "Ocotber"; that spelling is accepted and normalized.
var titleRe = regexp.MustCompile(`(?i)^(January|February|March|April|May|June|July|August|September|October|Ocotber|November|December) (20)(\d{2}) Pilot (AA|DL|UA) Pairings .*$`)

// monthNames are the twelve month names plus the extractor's known
// misspelling of October. A line containing any of them marks a page-column
// boundary rather than pairing content.
var monthNames = []string{
	"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE",
	"JULY", "AUGUST", "SEPTEMBER", "OCTOBER", "OCOTBER", "NOVEMBER", "DECEMBER",
}

// blankPlaceholder is emitted by the extractor for intentionally empty
// regions of the page.
const blankPlaceholder = "(This is intentionally left blank.)"

// Header is the parsed document title line.
type Header struct {
	MonthCode string // Three-letter month code, e.g. "MAY".
	Year      string // Two-digit year, e.g. "23".
	Codeshare string // AA, DL or UA.
}

// ParseHeader validates the document title line and extracts the month,
// year and carrier. A non-matching title rejects the whole document.
func ParseHeader(line string) (Header, error) {
	m := titleRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Header{}, pairing.Errorf(pairing.DocumentHeader, "title",
			"MONTH 20YY Pilot <carrier> Pairings ...", line)
	}
	month := strings.ToUpper(m[1])
	if month == "OCOTBER" {
		month = "OCTOBER"
	}
	return Header{
		MonthCode: month[:3],
		Year:      m[3],
		Codeshare: strings.ToUpper(m[4]),
	}, nil
}

// isMonthLine reports whether a line contains any month name. Such lines
// head each page column and reset the segmenter.
func isMonthLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, name := range monthNames {
		if strings.Contains(upper, name) {
			return true
		}
	}
	return false
}

// isSeparator reports whether a line is a pairing separator: a long
// unbroken run of '=' characters.
func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 10 {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '=' {
			return false
		}
	}
	return true
}

// isNoise reports whether a line inside a pairing block carries no schedule
// data: blank lines, the extractor's blank placeholder, and STANDOVER
// rest-period annotations.
func isNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed == blankPlaceholder {
		return true
	}
	return strings.Contains(trimmed, "STANDOVER")
}

// Blocks splits the full document text (all pages, in page then row order)
// into one line-group per pairing. Month-header lines close the current
// column; an '=' separator opens the first block of a column and terminates
// each block thereafter. Content still in the accumulator when a column
// closes (or at end of input) was never terminated by a separator and is
// discarded.
func Blocks(lines []string) [][]string {
	var blocks [][]string
	var current []string
	inside := false

	for _, line := range lines {
		if isMonthLine(line) {
			inside = false
			current = nil
			continue
		}
		if isSeparator(line) {
			if inside {
				if len(current) > 0 {
					blocks = append(blocks, current)
				}
				current = nil
			} else {
				inside = true
			}
			continue
		}
		if !inside || isNoise(line) {
			continue
		}
		current = append(current, line)
	}

	return blocks
}
