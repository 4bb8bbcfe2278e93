package parse

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/DaveBC/pairings/internal/pairing"
)

const separator = "=================================="

func TestDocumentEndToEnd(t *testing.T) {
	lines := []string{
		"MAY 2023 Pilot AA Pairings - Bid Package",
		separator,
		"A1001 BASE REPT 0630E -- -- 5 12 19 26",
		"B/U BOS",
		"   SU MO TU WE TH FR SA",
		"TBD",
		"MO 1234 BOS-ORD 0700 0900 0200 73G 0200 0200 0200 0415",
		"D-END: 1510E",
		"TOTALS BLOCK 0200 DHD 0000 CREDIT PAY A/L P 0200 TAFB 0915 LDGS 1",
		separator,
	}

	doc, err := Document(lines)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.MonthCode != "MAY" || doc.Year != "23" || doc.Codeshare != "AA" {
		t.Errorf("document header = %s/%s/%s", doc.MonthCode, doc.Year, doc.Codeshare)
	}
	if len(doc.Pairings) != 1 {
		t.Fatalf("got %d pairings, want 1", len(doc.Pairings))
	}

	p := doc.Pairings[0]
	if p.Base != "BOS" {
		t.Errorf("Base = %q, want BOS", p.Base)
	}
	if p.Codeshare != "AA" {
		t.Errorf("Codeshare = %q, want AA", p.Codeshare)
	}
	if len(p.Legs) != 1 {
		t.Fatalf("got %d legs, want 1", len(p.Legs))
	}
	if p.Legs[0].Origin != "BOS" || p.Legs[0].Destination != "ORD" {
		t.Errorf("leg = %s-%s, want BOS-ORD", p.Legs[0].Origin, p.Legs[0].Destination)
	}
	if !p.Legs[0].IsDutyEnd || p.Legs[0].LayoverTime != "" {
		t.Errorf("final leg duty flags = %v/%q", p.Legs[0].IsDutyEnd, p.Legs[0].LayoverTime)
	}
	if len(p.Hotels) != 1 || p.Hotels[0].Phone != pairing.PlaceholderPhone {
		t.Errorf("Hotels = %v, want one TBD hotel", p.Hotels)
	}
}

func TestDocumentHeaderRejected(t *testing.T) {
	lines := []string{
		"MAY 2023 Pilot AA Schedule - Bid Package", // Missing the Pairings token.
		separator,
		"A1001 BASE REPT 0630E",
		separator,
	}
	doc, err := Document(lines)
	if err == nil {
		t.Fatal("expected a document-level rejection")
	}
	if doc != nil {
		t.Errorf("doc = %v, want nil (no partial results)", doc)
	}
	var pe *pairing.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.PairingID != pairing.DocumentHeader {
		t.Errorf("PairingID = %q, want %q", pe.PairingID, pairing.DocumentHeader)
	}
}

func TestDocumentEmpty(t *testing.T) {
	if _, err := Document(nil); err == nil {
		t.Fatal("expected an error for an empty document")
	}
}

func TestDocumentBlockCount(t *testing.T) {
	var lines []string
	lines = append(lines, "July 2023 Pilot UA Pairings - Bid Package")
	for i := 0; i < 3; i++ {
		lines = append(lines, separator)
		lines = append(lines,
			fmt.Sprintf("B%d001 BASE REPT 0630E  5 12 19 26", i+1),
			"B/U EWR",
			"   SU MO TU WE TH FR SA",
			"MO 1234 EWR-ORD 0700 0900 0200 73G 0200 0200 0200 0415",
			"D-END: 1510E",
			"TOTALS BLOCK 0200 DHD 0000 CREDIT PAY A/L P 0200 TAFB 0915 LDGS 1",
		)
	}
	lines = append(lines, separator)

	doc, err := Document(lines)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if len(doc.Pairings) != 3 {
		t.Fatalf("got %d pairings, want 3 (one per delimited block)", len(doc.Pairings))
	}
	for i, p := range doc.Pairings {
		if want := fmt.Sprintf("B%d001", i+1); p.ID != want {
			t.Errorf("pairing %d id = %q, want %q", i, p.ID, want)
		}
	}
}

func TestDocumentOneBadPairingRejectsAll(t *testing.T) {
	lines := []string{
		"May 2023 Pilot DL Pairings - Bid Package",
		separator,
		"C1001 BASE REPT 0630E  5 12 19 26",
		"B/U ATL",
		"   SU MO TU WE TH FR SA",
		"MO 1234 ATL-ORD 0700 0900 0200 73G 0200 0200 0200 0415",
		"D-END: 1510E",
		"TOTALS BLOCK 0200 DHD 0000 CREDIT PAY A/L P 0200 TAFB 0915 LDGS 1",
		separator,
		"C2001 BASE REPT 0630E  6 13 20 27",
		"B/U ATL",
		"   SU MO TU WE TH FR SA",
		"MO 1234 ATL-XX 0700 0900 0200 73G 0200 0200 0200 0415", // Bad destination.
		"D-END: 1510E",
		"TOTALS BLOCK 0200 DHD 0000 CREDIT PAY A/L P 0200 TAFB 0915 LDGS 1",
		separator,
	}
	doc, err := Document(lines)
	if err == nil {
		t.Fatal("expected the whole document to fail")
	}
	if doc != nil {
		t.Errorf("doc = %v, want nil (no partial results)", doc)
	}
	var pe *pairing.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.PairingID != "C2001" {
		t.Errorf("PairingID = %q, want C2001", pe.PairingID)
	}
}

func TestDocumentOcotberHeader(t *testing.T) {
	lines := []string{
		"Ocotber 2023 Pilot AA Pairings rev 1",
		separator,
		"D1001 BASE REPT 0630E  5 12 19 26",
		"B/U DCA",
		"   SU MO TU WE TH FR SA",
		"MO 1234 DCA-ORD 0700 0900 0200 73G 0200 0200 0200 0415",
		"D-END: 1510E",
		"TOTALS BLOCK 0200 DHD 0000 CREDIT PAY A/L P 0200 TAFB 0915 LDGS 1",
		separator,
	}
	doc, err := Document(lines)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.MonthCode != "OCT" {
		t.Errorf("MonthCode = %q, want OCT (misspelling normalized)", doc.MonthCode)
	}
}

// renderDocument re-serializes a parsed document into the per-line source
// grammar for the round-trip property. Hotels are re-attached after the
// duty-day boundary they chronologically follow.
func renderDocument(doc *pairing.Document) []string {
	months := map[string]string{
		"JAN": "January", "FEB": "February", "MAR": "March", "APR": "April",
		"MAY": "May", "JUN": "June", "JUL": "July", "AUG": "August",
		"SEP": "September", "OCT": "October", "NOV": "November", "DEC": "December",
	}
	lines := []string{fmt.Sprintf("%s 20%s Pilot %s Pairings - Bid Package",
		months[doc.MonthCode], doc.Year, doc.Codeshare)}

	for i := range doc.Pairings {
		lines = append(lines, separator)
		lines = append(lines, renderBlock(&doc.Pairings[i])...)
	}
	return append(lines, separator)
}

func renderBlock(p *pairing.Pairing) []string {
	var days []string
	for _, d := range p.OperatingDays {
		days = append(days, fmt.Sprintf("%d", d))
	}
	lines := []string{
		fmt.Sprintf("%s BASE REPT %s %s", p.ID, p.ReportTime, strings.Join(days, " ")),
		fmt.Sprintf("B/U %s", p.Base),
		"   SU MO TU WE TH FR SA",
	}

	hotel := 0
	for i, leg := range p.Legs {
		toks := []string{leg.DayCode}
		if leg.IsDeadhead {
			toks = append(toks, "DH")
		}
		toks = append(toks, leg.FlightNumber,
			leg.Origin+"-"+leg.Destination,
			leg.LocalDeparture, leg.LocalArrival, leg.BlockTime)
		if leg.IsDutyEnd {
			toks = append(toks, leg.EquipmentCode, leg.DutyTotalBlock,
				leg.DutyTotalCredit, leg.DutyTotalPay, leg.DutyTotalDuty)
			if leg.LayoverTime != "" {
				toks = append(toks, leg.LayoverTime)
			}
		} else {
			toks = append(toks, leg.GroundTime, leg.EquipmentCode)
		}
		lines = append(lines, strings.Join(toks, " "))

		if leg.IsDutyEnd && i < len(p.Legs)-1 {
			lines = append(lines, "D-END")
			if hotel < len(p.Hotels) {
				h := p.Hotels[hotel]
				if h.Name == "TBD" {
					lines = append(lines, "TBD")
				} else {
					lines = append(lines, h.Name+" "+h.Phone)
				}
				hotel++
			}
		}
	}

	lines = append(lines,
		fmt.Sprintf("D-END: %s", p.ReleaseTime),
		fmt.Sprintf("TOTALS: BLOCK %s DHD %s CREDIT PAY A/L P %s TAFB %s LDGS %s",
			p.TotalBlockTime, p.TotalDeadheadTime, p.TotalCreditTime,
			p.TimeAwayFromBase, p.LandingsCount))
	return lines
}

func TestDocumentRoundTrip(t *testing.T) {
	lines := []string{"May 2023 Pilot AA Pairings - Bid Package", separator}
	lines = append(lines, threeDayBlock...)
	lines = append(lines, separator)

	doc, err := Document(lines)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}

	doc2, err := Document(renderDocument(doc))
	if err != nil {
		t.Fatalf("re-parse of rendered document: %v", err)
	}
	if !reflect.DeepEqual(doc, doc2) {
		t.Errorf("round trip mismatch:\n first = %+v\nsecond = %+v", doc, doc2)
	}
}

func TestDocumentLengthRange(t *testing.T) {
	lines := []string{"May 2023 Pilot AA Pairings - Bid Package", separator}
	lines = append(lines, threeDayBlock...)
	lines = append(lines, separator)

	doc, err := Document(lines)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	for _, p := range doc.Pairings {
		if p.LengthInDays < 1 || p.LengthInDays > 5 {
			t.Errorf("pairing %s LengthInDays = %d, want 1-5", p.ID, p.LengthInDays)
		}
	}
}
