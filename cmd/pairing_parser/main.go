// Command-line entry point for the pairing parser (local workflow).
//
// Note about input formats
// ------------------------
// The parser expects the extracted text of a monthly bid package: plain
// lines, one pairing block per `===` delimited section, with the document
// title on the first line. PDF extraction happens upstream; this tool only
// consumes the resulting text.
//
// A single malformed field anywhere in the document rejects the whole
// document. Use -stats to see block and leg counters even on rejection.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DaveBC/pairings/internal/filter"
	"github.com/DaveBC/pairings/internal/pairing"
	"github.com/DaveBC/pairings/internal/parse"
	"github.com/DaveBC/pairings/internal/segment"
	"github.com/DaveBC/pairings/internal/storage"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "pairing_parser - commands:")
	fmt.Fprintln(w, "  parse  - parse an extracted bid package and output JSON")
	fmt.Fprintln(w, "  list   - query pairings previously stored with parse -db")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pairing_parser parse -input may.txt [-output out.json] [-pretty] [-db pairings.db] [-stats]")
	fmt.Fprintln(w, "  pairing_parser list -db pairings.db [-base BOS] [-max-length 3] [-report-before 0900] [-pretty]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Input must be the extracted text of a bid package (not the PDF).")
	fmt.Fprintln(w, "  - Rejected documents produce no output and exit non-zero.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "parse":
		runParse(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	inPath := fs.String("input", "", "Input text file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	dbPath := fs.String("db", "", "Also store the document in this SQLite database")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	_ = fs.Parse(args)

	var r io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Input read error: %v\n", err)
		os.Exit(1)
	}

	doc, err := parse.Document(lines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Document rejected: %v\n", err)
		if *showStats {
			printStats(os.Stderr, lines, nil)
		}
		os.Exit(1)
	}

	if *dbPath != "" {
		db, err := storage.OpenSQLite(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
			os.Exit(1)
		}
		if err := db.SaveDocument(doc); err != nil {
			_ = db.Close()
			fmt.Fprintf(os.Stderr, "Failed to store document: %v\n", err)
			os.Exit(1)
		}
		_ = db.Close()
	}

	if err := writeJSON(*outPath, doc, *pretty); err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}

	if *showStats {
		printStats(os.Stderr, lines, doc)
	}
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database written by parse -db")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	month := fs.String("month", "", "Month code (JAN..DEC)")
	year := fs.String("year", "", "Two-digit year")
	codeshare := fs.String("codeshare", "", "Carrier code (AA, DL, UA)")
	base := fs.String("base", "", "Domicile airport code")
	id := fs.String("id", "", "Exact pairing id")
	maxLength := fs.Int("max-length", 0, "Maximum pairing length in days")
	day := fs.Int("day", 0, "Day of month the pairing must operate on")
	reportAfter := fs.String("report-after", "", "Earliest report time (HHMM)")
	reportBefore := fs.String("report-before", "", "Latest report time (HHMM)")
	avoid := fs.String("avoid", "", "Comma-separated airports to avoid")
	limit := fs.Int("limit", 0, "Maximum number of pairings to return")
	_ = fs.Parse(args)

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "list requires -db")
		os.Exit(2)
	}

	db, err := storage.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	pairings, err := db.ListPairings(storage.PairingQuery{
		MonthCode: strings.ToUpper(*month),
		Year:      *year,
		Codeshare: strings.ToUpper(*codeshare),
		Base:      strings.ToUpper(*base),
		PairingID: strings.ToUpper(*id),
		LengthMax: *maxLength,
		Limit:     *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query error: %v\n", err)
		os.Exit(1)
	}

	crit := filter.New()
	crit.OperatingDay = *day
	crit.ReportAfter = *reportAfter
	crit.ReportBefore = *reportBefore
	for _, a := range strings.Split(*avoid, ",") {
		if a = strings.ToUpper(strings.TrimSpace(a)); a != "" {
			crit.Avoid = append(crit.Avoid, a)
		}
	}
	pairings = filter.Apply(crit, pairings)

	if err := writeJSON(*outPath, pairings, *pretty); err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
}

func writeJSON(path string, v any, pretty bool) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	var enc []byte
	var err error
	if pretty {
		enc, err = json.MarshalIndent(v, "", "  ")
	} else {
		enc, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(append(enc, '\n'))
	return err
}

func printStats(w io.Writer, lines []string, doc *pairing.Document) {
	blocks := segment.Blocks(lines)
	legs, hotels := 0, 0
	if doc != nil {
		for _, p := range doc.Pairings {
			legs += len(p.Legs)
			hotels += len(p.Hotels)
		}
	}
	fmt.Fprintf(w, "stats: lines=%d blocks=%d pairings=%d legs=%d hotels=%d\n",
		len(lines), len(blocks), pairingCount(doc), legs, hotels)
}

func pairingCount(doc *pairing.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Pairings)
}
