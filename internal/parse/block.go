package parse

import (
	"strings"

	"github.com/DaveBC/pairings/internal/calendar"
	"github.com/DaveBC/pairings/internal/pairing"
)

// Line roles within a pairing block. Roles overlap: the calendar grid shares
// the right-hand side of the first few lines with the header, base and
// leading body rows.
const (
	lineHeader       = 0 // Pairing id, BASE REPT, report time.
	lineBase         = 1 // Crew domicile.
	calendarLastLine = 5 // Calendar digits appear on lines 0..5.
	trailerLines     = 2 // Release line and totals line close every block.
)

const (
	dutyEndMarker = "D-END"
	totalsMarker  = "TOTALS"
)

// phoneShape matches hotel phone numbers as printed: DDD-DDD-DDDD.
func phoneShape(s string) bool {
	if len(s) != 12 || s[3] != '-' || s[7] != '-' {
		return false
	}
	return isDigits(s[:3]) && isDigits(s[4:7]) && isDigits(s[8:])
}

// parseBlock turns one segmented line-group into a Pairing. Any token that
// cannot be recovered to its expected shape aborts with a ParseError; the
// caller rejects the whole document.
func parseBlock(lines []string, codeshare string) (*pairing.Pairing, error) {
	n := len(lines)
	if n < 5 {
		id := "unknown"
		found := ""
		if n > 0 {
			found = lines[0]
			if toks := tokenize(lines[0]); len(toks) > 0 {
				id = toks[0]
			}
		}
		return nil, pairing.Errorf(id, "block", "at least 5 lines", found)
	}

	p := &pairing.Pairing{Codeshare: codeshare}

	if err := parseHeaderLine(p, lines[lineHeader]); err != nil {
		return nil, err
	}
	if err := parseBaseLine(p, lines[lineBase]); err != nil {
		return nil, err
	}

	// Calendar-digit region: the operating-day grid occupies the right edge
	// of the first lines, overlapping header, base and leading body rows.
	// The trailer never carries calendar digits; in short blocks it would
	// otherwise be scanned (the totals line ends in the landings count).
	for i := 0; i <= calendarLastLine && i < n-trailerLines; i++ {
		p.OperatingDays = append(p.OperatingDays, calendarDays(lines[i])...)
	}

	// Body rows: legs, duty-end markers and hotels.
	for i := 3; i < n-trailerLines; i++ {
		toks := tokenize(lines[i])
		if len(toks) == 0 {
			continue
		}
		switch classifyBody(toks) {
		case bodyLeg:
			leg, err := parseLeg(p.ID, toks, lines, i, n)
			if err != nil {
				return nil, err
			}
			p.Legs = append(p.Legs, leg)
		case bodyHotel:
			parseHotelLine(p, toks)
		case bodyPhoneOverflow:
			attachOverflowPhone(p, toks)
		case bodySkip:
		}
	}

	if err := parseTrailer(p, lines[n-2], lines[n-1]); err != nil {
		return nil, err
	}

	assemble(p)
	return p, nil
}

// parseHeaderLine handles line 0: pairing id, the literal "BASE REPT"
// caption, and the report time. The extractor splits the caption in a small
// set of known ways; each has a deterministic merge rule.
func parseHeaderLine(p *pairing.Pairing, line string) error {
	toks := tokenize(line)
	if len(toks) < 3 {
		return pairing.Errorf("unknown", "header", "id BASE REPT time", line)
	}
	p.ID = toks[0]
	c := &cursor{id: p.ID, toks: toks, pos: 1}

	if _, err := c.take("header", `the caption "BASE"`, func(s string) bool { return s == "BASE" }); err != nil {
		return err
	}

	// "REPT" shows up whole, split ("R EPT", "RE PT"), or with its trailing
	// T attached to the report time ("REP T0630E").
	if tok, ok := c.peek(); ok && tok == "REP" && c.pos+1 < len(c.toks) &&
		strings.HasPrefix(c.toks[c.pos+1], "T") && len(c.toks[c.pos+1]) > 1 {
		c.toks[c.pos] = "REPT"
		c.toks[c.pos+1] = c.toks[c.pos+1][1:]
	}
	if _, err := c.take("header", `the caption "REPT"`, func(s string) bool { return s == "REPT" }); err != nil {
		return err
	}

	report, err := c.take("report time", "5-character HHMM+zone", lengthIs(5))
	if err != nil {
		return err
	}
	p.ReportTime = report
	return nil
}

// parseBaseLine handles line 1: the crew domicile is the second token.
func parseBaseLine(p *pairing.Pairing, line string) error {
	toks := tokenize(line)
	c := &cursor{id: p.ID, toks: toks, pos: 1}
	base, err := c.take("base", "3-character domicile", lengthIs(3))
	if err != nil {
		return err
	}
	p.Base = base
	return nil
}

// calendarDays collects the operating-day digits from the tail of a line in
// the calendar region. Scanning runs right to left and stops at the first
// token that is neither "--" (a non-operating column) nor a bare 1-31; the
// result is returned in the line's left-to-right order.
func calendarDays(line string) []int {
	toks := tokenize(line)
	var rev []int
	for j := len(toks) - 1; j >= 0; j-- {
		tok := toks[j]
		if tok == "--" {
			continue
		}
		if !isCalendarDay(tok) {
			break
		}
		v := 0
		for i := 0; i < len(tok); i++ {
			v = v*10 + int(tok[i]-'0')
		}
		rev = append(rev, v)
	}
	var days []int
	for j := len(rev) - 1; j >= 0; j-- {
		days = append(days, rev[j])
	}
	return days
}

type bodyKind int

const (
	bodyLeg bodyKind = iota
	bodyHotel
	bodyPhoneOverflow
	bodySkip
)

// classifyBody decides what a body row is from its first token: a leg row
// starts with a weekday code (or a bare duty-day digit on a long row), a
// hotel row starts with name text, and a row of bare digits is the phone of
// the previous hotel spilling over.
func classifyBody(toks []string) bodyKind {
	first := toks[0]
	if len(first) == 2 && calendar.WeekdayIndex(first) >= 0 {
		return bodyLeg
	}
	if len(first) == 1 && first[0] >= '1' && first[0] <= '7' && len(toks) > 7 {
		return bodyLeg
	}
	// Split weekday code ("M O 1234 ..."): the cursor's merge recovery
	// reunites the pair, classification only has to recognize it.
	if len(first) == 1 && len(toks) > 1 && calendar.WeekdayIndex(first+toks[1]) >= 0 {
		return bodyLeg
	}
	if first == dutyEndMarker || first == totalsMarker || first == "--" {
		return bodySkip
	}
	if isDigits(first) {
		return bodyPhoneOverflow
	}
	return bodyHotel
}

// parseLeg extracts one flight segment from a body row. The row's position
// relative to the following lines decides the tail fields: a D-END on the
// next line marks the last leg of a duty day (duty totals instead of ground
// time), and a TOTALS marker two lines ahead marks the pairing's final duty
// day (no layover).
func parseLeg(id string, toks []string, lines []string, i, n int) (pairing.Leg, error) {
	var leg pairing.Leg

	// Deadhead marker sits between the day code and the flight number.
	if len(toks) > 1 && toks[1] == "DH" {
		leg.IsDeadhead = true
		toks = append(toks[:1:1], toks[2:]...)
	}

	c := &cursor{id: id, toks: toks}

	day, err := c.take("day code", "weekday code or duty-day digit", func(s string) bool {
		if calendar.WeekdayIndex(s) >= 0 {
			return true
		}
		return len(s) == 1 && s[0] >= '1' && s[0] <= '7'
	})
	if err != nil {
		return leg, err
	}
	leg.DayCode = day

	if err := parseFlightNumber(&leg, c); err != nil {
		return leg, err
	}
	if err := parseCityPair(&leg, c); err != nil {
		return leg, err
	}

	if leg.LocalDeparture, err = c.take("local departure", "HHMM", digitsN(4)); err != nil {
		return leg, err
	}
	if leg.LocalArrival, err = c.take("local arrival", "HHMM", digitsN(4)); err != nil {
		return leg, err
	}
	if leg.BlockTime, err = c.take("block time", "1-4 digits", digitsBetween(1, 4)); err != nil {
		return leg, err
	}

	dutyEnd := i+1 < n && strings.Contains(lines[i+1], dutyEndMarker)
	if !dutyEnd {
		if leg.GroundTime, err = c.take("ground time", "2-4 digits", digitsBetween(2, 4)); err != nil {
			return leg, err
		}
		if leg.EquipmentCode, err = c.take("equipment code", "2-3 character fleet code", isEquipment); err != nil {
			return leg, err
		}
		return leg, nil
	}

	leg.IsDutyEnd = true
	if leg.EquipmentCode, err = c.take("equipment code", "2-3 character fleet code", isEquipment); err != nil {
		return leg, err
	}
	if leg.DutyTotalBlock, err = c.take("duty total block", "1-4 digits", digitsBetween(1, 4)); err != nil {
		return leg, err
	}
	if leg.DutyTotalCredit, err = c.take("duty total credit", "1-4 digits", digitsBetween(1, 4)); err != nil {
		return leg, err
	}
	if leg.DutyTotalPay, err = c.take("duty total pay", "1-4 digits", digitsBetween(1, 4)); err != nil {
		return leg, err
	}
	if leg.DutyTotalDuty, err = c.take("duty total duty", "1-4 digits", digitsBetween(1, 4)); err != nil {
		return leg, err
	}

	finalDay := i+2 < n && strings.Contains(lines[i+2], totalsMarker)
	if !finalDay {
		if leg.LayoverTime, err = c.take("layover time", "1-4 digits", digitsBetween(1, 4)); err != nil {
			return leg, err
		}
	}
	return leg, nil
}

// parseFlightNumber reads the flight number after the day code. Scheduled
// legs carry exactly four digits; deadhead numbers vary in length and the
// extractor sometimes spills leading digits into the city-pair token.
func parseFlightNumber(leg *pairing.Leg, c *cursor) error {
	if !leg.IsDeadhead {
		fn, err := c.take("flight number", "4 digits", digitsN(4))
		if err != nil {
			return err
		}
		leg.FlightNumber = fn
		return nil
	}

	fn, err := c.take("flight number", "digits", isDigits)
	if err != nil {
		return err
	}
	// Absorb a numeric prefix spilled onto the next token, e.g. "12 34BOS-ORD".
	if next, ok := c.peek(); ok {
		j := 0
		for j < len(next) && next[j] >= '0' && next[j] <= '9' {
			j++
		}
		if j > 0 && j < len(next) {
			fn += next[:j]
			c.toks[c.pos] = next[j:]
		}
	}
	leg.FlightNumber = fn
	return nil
}

// parseCityPair reads origin and destination. They normally share one
// hyphenated token ("BOS-ORD"); when the extractor splits them the hyphen
// clings to one side and the two tokens are recovered separately.
func parseCityPair(leg *pairing.Leg, c *cursor) error {
	tok, ok := c.peek()
	if !ok {
		return pairing.Errorf(c.id, "city pair", "ORG-DST", "end of line")
	}
	if idx := strings.IndexByte(tok, '-'); idx > 0 && idx < len(tok)-1 {
		leg.Origin = tok[:idx]
		leg.Destination = tok[idx+1:]
		c.pos++
		if !isAirport(leg.Origin) {
			return pairing.Errorf(c.id, "origin", "3-letter airport code", leg.Origin)
		}
		if !isAirport(leg.Destination) {
			return pairing.Errorf(c.id, "destination", "3-letter airport code", leg.Destination)
		}
		return nil
	}

	origin, err := c.take("origin", "3-letter airport code", func(s string) bool {
		return isAirport(strings.Trim(s, "-"))
	})
	if err != nil {
		return err
	}
	dest, err := c.take("destination", "3-letter airport code", func(s string) bool {
		return isAirport(strings.Trim(s, "-"))
	})
	if err != nil {
		return err
	}
	leg.Origin = strings.Trim(origin, "-")
	leg.Destination = strings.Trim(dest, "-")
	return nil
}

// parseHotelLine accumulates a hotel row: name tokens up to the phone
// number. TBD rows stand for a hotel not yet assigned and get the
// placeholder phone. A row whose phone overflowed onto a later line leaves
// Phone empty until attachOverflowPhone completes it.
func parseHotelLine(p *pairing.Pairing, toks []string) {
	if toks[0] == "TBD" {
		p.Hotels = append(p.Hotels, pairing.Hotel{Name: "TBD", Phone: pairing.PlaceholderPhone})
		return
	}
	if phoneShape(toks[0]) && len(p.Hotels) > 0 && p.Hotels[len(p.Hotels)-1].Phone == "" {
		p.Hotels[len(p.Hotels)-1].Phone = toks[0]
		return
	}
	var h pairing.Hotel
	var name []string
	for _, tok := range toks {
		if phoneShape(tok) {
			h.Phone = tok
			break
		}
		name = append(name, tok)
	}
	h.Name = strings.Join(name, " ")
	p.Hotels = append(p.Hotels, h)
}

// attachOverflowPhone handles a phone number printed alone on its own line,
// split into bare digit groups. It belongs to the most recent hotel.
func attachOverflowPhone(p *pairing.Pairing, toks []string) {
	if len(p.Hotels) == 0 {
		return
	}
	joined := strings.Join(toks, "-")
	last := &p.Hotels[len(p.Hotels)-1]
	if last.Phone == "" {
		last.Phone = joined
		return
	}
	last.Phone += "-" + joined
}

// parseTrailer reads the two closing lines of every block: the release line
// (release time is its second token) and the totals line, whose fixed token
// offsets carry the trip-level totals.
func parseTrailer(p *pairing.Pairing, releaseLine, totalsLine string) error {
	c := &cursor{id: p.ID, toks: tokenize(releaseLine), pos: 1}
	release, err := c.take("release time", "5-character HHMM+zone", lengthIs(5))
	if err != nil {
		return err
	}
	p.ReleaseTime = release

	toks := tokenize(totalsLine)
	if len(toks) < 14 {
		return pairing.Errorf(p.ID, "totals line", "at least 14 tokens", totalsLine)
	}
	p.TotalBlockTime = toks[2]
	p.TotalDeadheadTime = toks[4]
	p.TotalCreditTime = toks[9]
	p.TimeAwayFromBase = toks[11]
	p.LandingsCount = toks[13]
	return nil
}

// assemble finishes a pairing after tokenization: operating days become a
// distinct ascending set (the calendar grid repeats digits across lines),
// and the span in days comes from the first and last leg's day codes.
func assemble(p *pairing.Pairing) {
	if len(p.OperatingDays) > 0 {
		seen := make(map[int]bool, len(p.OperatingDays))
		days := p.OperatingDays[:0]
		for _, d := range p.OperatingDays {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
		for i := 1; i < len(days); i++ {
			for j := i; j > 0 && days[j] < days[j-1]; j-- {
				days[j], days[j-1] = days[j-1], days[j]
			}
		}
		p.OperatingDays = days
	}

	if len(p.Legs) > 0 {
		p.LengthInDays = calendar.PairingLength(
			p.Legs[0].DayCode, p.Legs[len(p.Legs)-1].DayCode)
	}
}
