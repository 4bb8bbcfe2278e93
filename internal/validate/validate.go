// Package validate runs the second, independent pass over assembled pairing
// records, checking every field against its canonical shape. It shares no
// code with the tokenizer's recovery predicates: a record that only exists
// because recovery mis-merged tokens must still fail here.
package validate

import (
	"fmt"
	"regexp"

	"github.com/DaveBC/pairings/internal/pairing"
)

var (
	idRe        = regexp.MustCompile(`^[A-Z][0-9]{4}$`)
	airportRe   = regexp.MustCompile(`^[A-Z]{3}$`)
	zonedTimeRe = regexp.MustCompile(`^[0-9]{4}[A-Z]$`)
	hhmmRe      = regexp.MustCompile(`^[0-9]{4}$`)
	digitsRe    = regexp.MustCompile(`^[0-9]{1,4}$`)
	groundRe    = regexp.MustCompile(`^[0-9]{2,4}$`)
	flightRe    = regexp.MustCompile(`^[0-9]{4}$`)
	dhFlightRe  = regexp.MustCompile(`^[0-9]+$`)
	equipmentRe = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	dayCodeRe   = regexp.MustCompile(`^(SU|MO|TU|WE|TH|FR|SA|[1-7])$`)
	phoneRe     = regexp.MustCompile(`^[0-9]{3}-[0-9]{3}-[0-9]{4}$`)
)

var codeshares = map[string]bool{
	pairing.CarrierAA: true,
	pairing.CarrierDL: true,
	pairing.CarrierUA: true,
}

// Document checks every pairing of a parsed document in order, stopping at
// the first violation. One bad field rejects the whole document.
func Document(doc *pairing.Document) error {
	for i := range doc.Pairings {
		if err := Pairing(&doc.Pairings[i]); err != nil {
			return err
		}
	}
	return nil
}

// Pairing checks one pairing and all of its legs and hotels, in a fixed
// order, short-circuiting on the first violation.
func Pairing(p *pairing.Pairing) error {
	if !idRe.MatchString(p.ID) {
		return pairing.Errorf(p.ID, "id", "letter followed by 4 digits", p.ID)
	}
	if !codeshares[p.Codeshare] {
		return pairing.Errorf(p.ID, "codeshare", "AA, DL or UA", p.Codeshare)
	}
	for _, d := range p.OperatingDays {
		if d < 1 || d > 31 {
			return pairing.Errorf(p.ID, "operating day", "day of month 1-31", fmt.Sprintf("%d", d))
		}
	}
	if !airportRe.MatchString(p.Base) {
		return pairing.Errorf(p.ID, "base", "3-letter airport code", p.Base)
	}
	if !zonedTimeRe.MatchString(p.ReportTime) {
		return pairing.Errorf(p.ID, "report time", "HHMM plus timezone letter", p.ReportTime)
	}
	if !zonedTimeRe.MatchString(p.ReleaseTime) {
		return pairing.Errorf(p.ID, "release time", "HHMM plus timezone letter", p.ReleaseTime)
	}
	if !digitsRe.MatchString(p.TotalBlockTime) {
		return pairing.Errorf(p.ID, "total block time", "1-4 digits", p.TotalBlockTime)
	}
	if !digitsRe.MatchString(p.TotalDeadheadTime) {
		return pairing.Errorf(p.ID, "total deadhead time", "1-4 digits", p.TotalDeadheadTime)
	}
	if !digitsRe.MatchString(p.TotalCreditTime) {
		return pairing.Errorf(p.ID, "total credit time", "1-4 digits", p.TotalCreditTime)
	}
	if !digitsRe.MatchString(p.TimeAwayFromBase) {
		return pairing.Errorf(p.ID, "time away from base", "1-4 digits", p.TimeAwayFromBase)
	}
	if !digitsRe.MatchString(p.LandingsCount) {
		return pairing.Errorf(p.ID, "landings count", "1-4 digits", p.LandingsCount)
	}
	if len(p.Legs) == 0 {
		return pairing.Errorf(p.ID, "legs", "at least one leg", "none")
	}
	for i := range p.Legs {
		if err := leg(p.ID, &p.Legs[i]); err != nil {
			return err
		}
	}
	for i := range p.Hotels {
		if !phoneRe.MatchString(p.Hotels[i].Phone) {
			return pairing.Errorf(p.ID, "hotel phone", "DDD-DDD-DDDD", p.Hotels[i].Phone)
		}
	}
	return nil
}

func leg(id string, l *pairing.Leg) error {
	if !dayCodeRe.MatchString(l.DayCode) {
		return pairing.Errorf(id, "day code", "weekday code or digit 1-7", l.DayCode)
	}
	if l.IsDeadhead {
		if !dhFlightRe.MatchString(l.FlightNumber) {
			return pairing.Errorf(id, "flight number", "digits", l.FlightNumber)
		}
	} else if !flightRe.MatchString(l.FlightNumber) {
		return pairing.Errorf(id, "flight number", "4 digits", l.FlightNumber)
	}
	if !airportRe.MatchString(l.Origin) {
		return pairing.Errorf(id, "origin", "3-letter airport code", l.Origin)
	}
	if !airportRe.MatchString(l.Destination) {
		return pairing.Errorf(id, "destination", "3-letter airport code", l.Destination)
	}
	if !hhmmRe.MatchString(l.LocalDeparture) {
		return pairing.Errorf(id, "local departure", "HHMM", l.LocalDeparture)
	}
	if !hhmmRe.MatchString(l.LocalArrival) {
		return pairing.Errorf(id, "local arrival", "HHMM", l.LocalArrival)
	}
	if !digitsRe.MatchString(l.BlockTime) {
		return pairing.Errorf(id, "block time", "1-4 digits", l.BlockTime)
	}
	if !equipmentRe.MatchString(l.EquipmentCode) {
		return pairing.Errorf(id, "equipment code", "2-3 character fleet code", l.EquipmentCode)
	}

	if l.IsDutyEnd {
		if l.GroundTime != "" {
			return pairing.Errorf(id, "ground time", "absent on the last leg of a duty day", l.GroundTime)
		}
		if !digitsRe.MatchString(l.DutyTotalBlock) {
			return pairing.Errorf(id, "duty total block", "1-4 digits", l.DutyTotalBlock)
		}
		if !digitsRe.MatchString(l.DutyTotalCredit) {
			return pairing.Errorf(id, "duty total credit", "1-4 digits", l.DutyTotalCredit)
		}
		if !digitsRe.MatchString(l.DutyTotalPay) {
			return pairing.Errorf(id, "duty total pay", "1-4 digits", l.DutyTotalPay)
		}
		if !digitsRe.MatchString(l.DutyTotalDuty) {
			return pairing.Errorf(id, "duty total duty", "1-4 digits", l.DutyTotalDuty)
		}
		if l.LayoverTime != "" && !digitsRe.MatchString(l.LayoverTime) {
			return pairing.Errorf(id, "layover time", "1-4 digits", l.LayoverTime)
		}
		return nil
	}

	if !groundRe.MatchString(l.GroundTime) {
		return pairing.Errorf(id, "ground time", "2-4 digits", l.GroundTime)
	}
	return nil
}
