package validate

import (
	"errors"
	"testing"

	"github.com/DaveBC/pairings/internal/pairing"
)

// goodPairing returns a pairing that passes every check; tests break one
// field at a time.
func goodPairing() pairing.Pairing {
	return pairing.Pairing{
		ID:                "A1001",
		Codeshare:         pairing.CarrierAA,
		Base:              "BOS",
		OperatingDays:     []int{5, 12, 19, 26},
		ReportTime:        "0630E",
		ReleaseTime:       "1510E",
		TotalBlockTime:    "0200",
		TotalDeadheadTime: "0000",
		TotalCreditTime:   "0200",
		TimeAwayFromBase:  "0915",
		LandingsCount:     "1",
		Legs: []pairing.Leg{
			{
				DayCode:         "MO",
				FlightNumber:    "1234",
				Origin:          "BOS",
				Destination:     "ORD",
				LocalDeparture:  "0700",
				LocalArrival:    "0900",
				BlockTime:       "0200",
				EquipmentCode:   "73G",
				IsDutyEnd:       true,
				DutyTotalBlock:  "0200",
				DutyTotalCredit: "0200",
				DutyTotalPay:    "0200",
				DutyTotalDuty:   "0415",
			},
		},
		Hotels:       []pairing.Hotel{{Name: "TBD", Phone: pairing.PlaceholderPhone}},
		LengthInDays: 1,
	}
}

func TestPairingValid(t *testing.T) {
	p := goodPairing()
	if err := Pairing(&p); err != nil {
		t.Fatalf("Pairing: %v", err)
	}
}

func TestPairingFieldViolations(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*pairing.Pairing)
		wantField string
	}{
		{"all-digit id", func(p *pairing.Pairing) { p.ID = "12345" }, "id"},
		{"lowercase id", func(p *pairing.Pairing) { p.ID = "a1234" }, "id"},
		{"unknown codeshare", func(p *pairing.Pairing) { p.Codeshare = "WN" }, "codeshare"},
		{"short base", func(p *pairing.Pairing) { p.Base = "BO" }, "base"},
		{"day out of range", func(p *pairing.Pairing) { p.OperatingDays = []int{0, 5} }, "operating day"},
		{"day too large", func(p *pairing.Pairing) { p.OperatingDays = []int{32} }, "operating day"},
		{"report time without zone", func(p *pairing.Pairing) { p.ReportTime = "0630" }, "report time"},
		{"release time garbage", func(p *pairing.Pairing) { p.ReleaseTime = "15E10" }, "release time"},
		{"non-numeric totals", func(p *pairing.Pairing) { p.TotalBlockTime = "02:00" }, "total block time"},
		{"no legs", func(p *pairing.Pairing) { p.Legs = nil }, "legs"},
		{"undashed phone", func(p *pairing.Pairing) { p.Hotels[0].Phone = "1234567890" }, "hotel phone"},
		{"bad day code", func(p *pairing.Pairing) { p.Legs[0].DayCode = "XX" }, "day code"},
		{"day code zero", func(p *pairing.Pairing) { p.Legs[0].DayCode = "0" }, "day code"},
		{"short flight number", func(p *pairing.Pairing) { p.Legs[0].FlightNumber = "123" }, "flight number"},
		{"bad origin", func(p *pairing.Pairing) { p.Legs[0].Origin = "BO5" }, "origin"},
		{"bad destination", func(p *pairing.Pairing) { p.Legs[0].Destination = "ordx" }, "destination"},
		{"bad departure", func(p *pairing.Pairing) { p.Legs[0].LocalDeparture = "700" }, "local departure"},
		{"bad arrival", func(p *pairing.Pairing) { p.Legs[0].LocalArrival = "09000" }, "local arrival"},
		{"bad equipment", func(p *pairing.Pairing) { p.Legs[0].EquipmentCode = "7" }, "equipment code"},
		{"ground time on duty end", func(p *pairing.Pairing) { p.Legs[0].GroundTime = "0045" }, "ground time"},
		{"missing duty total", func(p *pairing.Pairing) { p.Legs[0].DutyTotalPay = "" }, "duty total pay"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := goodPairing()
			tc.mutate(&p)
			err := Pairing(&p)
			if err == nil {
				t.Fatal("expected a violation")
			}
			var pe *pairing.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T", err)
			}
			if pe.Field != tc.wantField {
				t.Errorf("Field = %q, want %q (err: %v)", pe.Field, tc.wantField, err)
			}
		})
	}
}

func TestCheckOrderOperatingDaysBeforeBase(t *testing.T) {
	p := goodPairing()
	p.Base = "BO"
	p.OperatingDays = []int{0}
	err := Pairing(&p)
	if err == nil {
		t.Fatal("expected a violation")
	}
	var pe *pairing.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.Field != "operating day" {
		t.Errorf("Field = %q, want operating day (checked before base)", pe.Field)
	}
}

func TestLegGroundTimeRequired(t *testing.T) {
	p := goodPairing()
	p.Legs[0].IsDutyEnd = false
	p.Legs[0].DutyTotalBlock = ""
	p.Legs[0].DutyTotalCredit = ""
	p.Legs[0].DutyTotalPay = ""
	p.Legs[0].DutyTotalDuty = ""
	err := Pairing(&p)
	if err == nil {
		t.Fatal("expected a ground time violation on a mid-duty leg without one")
	}
	var pe *pairing.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.Field != "ground time" {
		t.Errorf("Field = %q, want ground time", pe.Field)
	}
}

func TestDeadheadFlightNumberLength(t *testing.T) {
	p := goodPairing()
	p.Legs[0].IsDeadhead = true
	p.Legs[0].FlightNumber = "98765"
	if err := Pairing(&p); err != nil {
		t.Fatalf("deadhead legs accept variable-length flight numbers: %v", err)
	}
}

func TestDocumentShortCircuits(t *testing.T) {
	bad := goodPairing()
	bad.ID = "A100" // Too short.
	doc := &pairing.Document{
		MonthCode: "MAY",
		Year:      "23",
		Codeshare: pairing.CarrierAA,
		Pairings:  []pairing.Pairing{goodPairing(), bad},
	}
	err := Document(doc)
	if err == nil {
		t.Fatal("expected the document to fail on its second pairing")
	}
	var pe *pairing.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.Field != "id" {
		t.Errorf("Field = %q, want id", pe.Field)
	}
}
