// Package pairing provides the pairing schedule record types shared by the
// parser, validator, storage and API layers.
package pairing

import "fmt"

// Codeshare carrier codes accepted in document headers.
const (
	CarrierAA = "AA"
	CarrierDL = "DL"
	CarrierUA = "UA"
)

// PlaceholderPhone is assigned to hotels listed as TBD in the source
// document. It satisfies the DDD-DDD-DDDD phone shape.
const PlaceholderPhone = "000-000-0000"

// Pairing is one crew trip pattern for a given month and carrier.
type Pairing struct {
	ID            string `json:"id"`             // Letter + 4 digits, e.g. "A1234".
	Codeshare     string `json:"codeshare"`      // AA, DL or UA, from the document header.
	Base          string `json:"base"`           // 3-letter crew domicile.
	OperatingDays []int  `json:"operating_days"` // Distinct days of month, ascending.
	ReportTime    string `json:"report_time"`    // "HHMM" + timezone letter.
	ReleaseTime   string `json:"release_time"`   // "HHMM" + timezone letter.

	// Trip-level totals, kept as the digit strings the document carries.
	TotalBlockTime    string `json:"total_block_time"`
	TotalDeadheadTime string `json:"total_deadhead_time"`
	TotalCreditTime   string `json:"total_credit_time"`
	TimeAwayFromBase  string `json:"time_away_from_base"`
	LandingsCount     string `json:"landings_count"`

	Legs   []Leg   `json:"legs"`
	Hotels []Hotel `json:"hotels,omitempty"` // Chronological encounter order.

	// LengthInDays is derived from the day codes of the first and last leg.
	LengthInDays int `json:"length_in_days"`
}

// Leg is one flight or deadhead segment within a duty day.
type Leg struct {
	DayCode        string `json:"day_code"` // Two-letter weekday or digit 1-7.
	IsDeadhead     bool   `json:"is_deadhead"`
	FlightNumber   string `json:"flight_number"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	LocalDeparture string `json:"local_departure"` // "HHMM".
	LocalArrival   string `json:"local_arrival"`   // "HHMM".
	BlockTime      string `json:"block_time"`
	GroundTime     string `json:"ground_time,omitempty"` // Absent on the last leg of a duty day.
	EquipmentCode  string `json:"equipment_code"`

	// Duty-day totals, present only on the last leg of a duty day.
	IsDutyEnd       bool   `json:"is_duty_end"`
	DutyTotalBlock  string `json:"duty_total_block,omitempty"`
	DutyTotalCredit string `json:"duty_total_credit,omitempty"`
	DutyTotalPay    string `json:"duty_total_pay,omitempty"`
	DutyTotalDuty   string `json:"duty_total_duty,omitempty"`
	LayoverTime     string `json:"layover_time,omitempty"` // Absent on the pairing's final duty day.
}

// Hotel is one overnight accommodation within a pairing.
type Hotel struct {
	Name  string `json:"name"`
	Phone string `json:"phone"` // "DDD-DDD-DDDD" or PlaceholderPhone.
}

// Document is the validated result of one parse run.
type Document struct {
	MonthCode string    `json:"month_code"` // Three-letter month, e.g. "MAY".
	Year      string    `json:"year"`       // Two-digit year, e.g. "23".
	Codeshare string    `json:"codeshare"`  // Carrier from the document header.
	Pairings  []Pairing `json:"pairings"`
}

// DocumentHeader is the PairingID used for errors raised by the document
// title check, before any pairing id is known.
const DocumentHeader = "document header"

// ParseError reports a field that could not be recovered or validated.
// One ParseError rejects the entire document.
type ParseError struct {
	PairingID string // Pairing id, or DocumentHeader for the title check.
	Field     string
	Expected  string
	Found     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pairing %s: field %s: expected %s, found %q",
		e.PairingID, e.Field, e.Expected, e.Found)
}

// Errorf builds a ParseError for the given pairing and field.
func Errorf(pairingID, field, expected, found string) *ParseError {
	return &ParseError{PairingID: pairingID, Field: field, Expected: expected, Found: found}
}
