package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DaveBC/pairings/internal/pairing"
)

func testDocument() *pairing.Document {
	return &pairing.Document{
		MonthCode: "MAY",
		Year:      "23",
		Codeshare: pairing.CarrierAA,
		Pairings: []pairing.Pairing{
			{
				ID: "A1001", Codeshare: "AA", Base: "BOS",
				OperatingDays: []int{5, 12, 19, 26},
				ReportTime:    "0630E", ReleaseTime: "1510E",
				TotalBlockTime: "0200", TotalDeadheadTime: "0000",
				TotalCreditTime: "0200", TimeAwayFromBase: "0915", LandingsCount: "1",
				Legs: []pairing.Leg{{
					DayCode: "MO", FlightNumber: "1234",
					Origin: "BOS", Destination: "ORD",
					LocalDeparture: "0700", LocalArrival: "0900",
					BlockTime: "0200", EquipmentCode: "73G",
					IsDutyEnd: true, DutyTotalBlock: "0200",
					DutyTotalCredit: "0200", DutyTotalPay: "0200", DutyTotalDuty: "0415",
				}},
				Hotels:       []pairing.Hotel{{Name: "TBD", Phone: pairing.PlaceholderPhone}},
				LengthInDays: 1,
			},
			{
				ID: "A2002", Codeshare: "AA", Base: "DFW",
				OperatingDays: []int{6, 13},
				ReportTime:    "1200C", ReleaseTime: "1600C",
				TotalBlockTime: "0300", TotalDeadheadTime: "0300",
				TotalCreditTime: "0600", TimeAwayFromBase: "2800", LandingsCount: "1",
				Legs: []pairing.Leg{
					{
						DayCode: "TU", IsDeadhead: true, FlightNumber: "98765",
						Origin: "DFW", Destination: "MIA",
						LocalDeparture: "0800", LocalArrival: "1100",
						BlockTime: "0300", GroundTime: "0100", EquipmentCode: "73G",
					},
					{
						DayCode: "TU", FlightNumber: "4321",
						Origin: "MIA", Destination: "DFW",
						LocalDeparture: "1200", LocalArrival: "1500",
						BlockTime: "0300", EquipmentCode: "73G",
						IsDutyEnd: true, DutyTotalBlock: "0300",
						DutyTotalCredit: "0600", DutyTotalPay: "0600", DutyTotalDuty: "0800",
					},
				},
				LengthInDays: 1,
			},
		},
	}
}

func openTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "pairings.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteSaveAndList(t *testing.T) {
	db := openTestDB(t)
	doc := testDocument()

	if err := db.SaveDocument(doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	got, err := db.ListPairings(PairingQuery{})
	if err != nil {
		t.Fatalf("ListPairings: %v", err)
	}
	if !reflect.DeepEqual(got, doc.Pairings) {
		t.Errorf("round trip mismatch:\n got = %+v\nwant = %+v", got, doc.Pairings)
	}
}

func TestSQLiteFilters(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveDocument(testDocument()); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	byBase, err := db.ListPairings(PairingQuery{Base: "DFW"})
	if err != nil {
		t.Fatalf("ListPairings(base): %v", err)
	}
	if len(byBase) != 1 || byBase[0].ID != "A2002" {
		t.Errorf("base filter = %v, want [A2002]", byBase)
	}

	byID, err := db.ListPairings(PairingQuery{PairingID: "A1001"})
	if err != nil {
		t.Fatalf("ListPairings(id): %v", err)
	}
	if len(byID) != 1 || byID[0].ID != "A1001" {
		t.Errorf("id filter = %v, want [A1001]", byID)
	}

	none, err := db.ListPairings(PairingQuery{Codeshare: "DL"})
	if err != nil {
		t.Fatalf("ListPairings(codeshare): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("codeshare filter = %v, want empty", none)
	}
}

func TestSQLiteReloadReplacesDocument(t *testing.T) {
	db := openTestDB(t)
	doc := testDocument()

	if err := db.SaveDocument(doc); err != nil {
		t.Fatalf("first SaveDocument: %v", err)
	}

	// A corrected re-load of the same month replaces the earlier rows.
	doc.Pairings = doc.Pairings[:1]
	if err := db.SaveDocument(doc); err != nil {
		t.Fatalf("second SaveDocument: %v", err)
	}

	n, err := db.CountPairings("MAY", "23", "AA")
	if err != nil {
		t.Fatalf("CountPairings: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1 after re-load", n)
	}
}
