// Package filter selects pairings from a validated document by the
// predicates the schedule UI exposes: carrier, base, operating day, report
// time window, airports to include or avoid, leg and deadhead counts, and
// minimum layover.
package filter

import "github.com/DaveBC/pairings/internal/pairing"

// Criteria is the conjunction of all active predicates. Zero values
// deactivate a predicate.
type Criteria struct {
	Codeshare    string   // Exact carrier match.
	Base         string   // Exact domicile match.
	OperatingDay int      // Pairing must operate on this day of month.
	ReportAfter  string   // "HHMM", inclusive lower bound on report time.
	ReportBefore string   // "HHMM", inclusive upper bound on report time.
	Include      []string // Every listed airport must appear on some leg.
	Avoid        []string // No listed airport may appear on any leg.
	MinLegs      int
	MaxLegs      int
	MaxDeadheads int  // -1 disables; 0 means no deadheads allowed.
	MinLayover   int  // Minutes as HHMM-style integer, e.g. 1030 for 10h30m.
	LengthInDays int  // Exact pairing length.
}

// New returns criteria with every predicate disabled.
func New() Criteria {
	return Criteria{MaxDeadheads: -1}
}

// Apply returns the pairings matching every active predicate, in input order.
func Apply(c Criteria, pairings []pairing.Pairing) []pairing.Pairing {
	var out []pairing.Pairing
	for i := range pairings {
		if Matches(c, &pairings[i]) {
			out = append(out, pairings[i])
		}
	}
	return out
}

// Matches reports whether one pairing satisfies every active predicate.
func Matches(c Criteria, p *pairing.Pairing) bool {
	if c.Codeshare != "" && p.Codeshare != c.Codeshare {
		return false
	}
	if c.Base != "" && p.Base != c.Base {
		return false
	}
	if c.OperatingDay != 0 && !operatesOn(p, c.OperatingDay) {
		return false
	}
	if c.ReportAfter != "" && clock(p.ReportTime) < clock(c.ReportAfter) {
		return false
	}
	if c.ReportBefore != "" && clock(p.ReportTime) > clock(c.ReportBefore) {
		return false
	}
	if c.MinLegs != 0 && len(p.Legs) < c.MinLegs {
		return false
	}
	if c.MaxLegs != 0 && len(p.Legs) > c.MaxLegs {
		return false
	}
	if c.MaxDeadheads >= 0 && deadheads(p) > c.MaxDeadheads {
		return false
	}
	if c.LengthInDays != 0 && p.LengthInDays != c.LengthInDays {
		return false
	}
	for _, apt := range c.Include {
		if !visits(p, apt) {
			return false
		}
	}
	for _, apt := range c.Avoid {
		if visits(p, apt) {
			return false
		}
	}
	if c.MinLayover > 0 && !hasLayoverAtLeast(p, c.MinLayover) {
		return false
	}
	return true
}

func operatesOn(p *pairing.Pairing, day int) bool {
	for _, d := range p.OperatingDays {
		if d == day {
			return true
		}
	}
	return false
}

func deadheads(p *pairing.Pairing) int {
	n := 0
	for i := range p.Legs {
		if p.Legs[i].IsDeadhead {
			n++
		}
	}
	return n
}

func visits(p *pairing.Pairing, airport string) bool {
	for i := range p.Legs {
		if p.Legs[i].Origin == airport || p.Legs[i].Destination == airport {
			return true
		}
	}
	return false
}

// hasLayoverAtLeast reports whether any overnight layover reaches the given
// HHMM-style duration. Pairings without a layover never match.
func hasLayoverAtLeast(p *pairing.Pairing, want int) bool {
	for i := range p.Legs {
		l := &p.Legs[i]
		if l.LayoverTime != "" && clock(l.LayoverTime) >= want {
			return true
		}
	}
	return false
}

// clock parses an "HHMM" (optionally zone-suffixed) string into a
// comparable integer. Validated fields always parse; anything else compares
// as zero.
func clock(s string) int {
	v := 0
	for i := 0; i < len(s) && i < 4; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0
		}
		v = v*10 + int(c-'0')
	}
	return v
}
