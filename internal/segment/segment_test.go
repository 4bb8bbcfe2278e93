package segment

import (
	"strings"
	"testing"
)

func TestParseHeader(t *testing.T) {
	cases := []struct {
		name      string
		line      string
		wantMonth string
		wantYear  string
		wantShare string
		wantErr   bool
	}{
		{"title case", "May 2023 Pilot AA Pairings - Bid Package", "MAY", "23", "AA", false},
		{"upper case", "MAY 2023 Pilot AA Pairings ...", "MAY", "23", "AA", false},
		{"december DL", "December 2024 Pilot DL Pairings final", "DEC", "24", "DL", false},
		{"misspelled october", "Ocotber 2023 Pilot UA Pairings rev 2", "OCT", "23", "UA", false},
		{"missing Pairings token", "May 2023 Pilot AA Schedule - Bid Package", "", "", "", true},
		{"unknown carrier", "May 2023 Pilot WN Pairings - Bid Package", "", "", "", true},
		{"19xx year", "May 1999 Pilot AA Pairings - Bid Package", "", "", "", true},
		{"empty", "", "", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := ParseHeader(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseHeader(%q) succeeded, want error", tc.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader(%q) error: %v", tc.line, err)
			}
			if h.MonthCode != tc.wantMonth || h.Year != tc.wantYear || h.Codeshare != tc.wantShare {
				t.Errorf("ParseHeader(%q) = %+v, want %s/%s/%s",
					tc.line, h, tc.wantMonth, tc.wantYear, tc.wantShare)
			}
		})
	}
}

func TestBlocks(t *testing.T) {
	text := `May 2023 Pilot AA Pairings - Bid Package
==================================
A1001 BASE REPT 0600E
line two
==================================
A1002 BASE REPT 0700E

(This is intentionally left blank.)
line with STANDOVER 1200
line three
==================================`

	blocks := Blocks(strings.Split(text, "\n"))
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if len(blocks[0]) != 2 {
		t.Errorf("block 0 has %d lines, want 2: %v", len(blocks[0]), blocks[0])
	}
	if len(blocks[1]) != 2 {
		t.Errorf("block 1 has %d lines, want 2: %v", len(blocks[1]), blocks[1])
	}
	if blocks[1][0] != "A1002 BASE REPT 0700E" {
		t.Errorf("block 1 line 0 = %q", blocks[1][0])
	}
}

func TestBlocksMonthHeaderResets(t *testing.T) {
	lines := []string{
		"MAY 2023 Pilot AA Pairings page 1",
		"==================================",
		"A1001 header",
		"body",
		"==================================",
		"A1002 header",
		"trailing content never terminated",
		"JUNE 2023 continuation column",
		"==================================",
		"A1003 header",
		"body",
		"==================================",
	}
	blocks := Blocks(lines)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (unterminated block must be dropped)", len(blocks))
	}
	if blocks[0][0] != "A1001 header" || blocks[1][0] != "A1003 header" {
		t.Errorf("unexpected blocks: %v", blocks)
	}
}

func TestIsSeparator(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"==================================", true},
		{"  ==========================  ", true},
		{"====", false},       // Too short.
		{"===== =====", false}, // Broken run.
		{"----------------------------------", false},
	}
	for _, tc := range cases {
		if got := isSeparator(tc.line); got != tc.want {
			t.Errorf("isSeparator(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}
