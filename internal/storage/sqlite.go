// Package storage persists validated pairing documents. SQLite backs the
// local CLI workflow; PostgreSQL and ClickHouse back the API server.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/DaveBC/pairings/internal/pairing"
)

// SQLiteDB wraps a SQLite database holding validated pairings.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps the file readable while a load is in progress.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pairings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		month_code TEXT NOT NULL,
		year TEXT NOT NULL,
		codeshare TEXT NOT NULL,
		pairing_id TEXT NOT NULL,
		base TEXT NOT NULL,
		report_time TEXT NOT NULL,
		release_time TEXT NOT NULL,
		length_days INTEGER NOT NULL,
		leg_count INTEGER NOT NULL,
		deadhead_count INTEGER NOT NULL,
		operating_days TEXT NOT NULL,
		record_json TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now')),
		UNIQUE(month_code, year, codeshare, pairing_id)
	);

	CREATE INDEX IF NOT EXISTS idx_pairings_document ON pairings(year, month_code, codeshare);
	CREATE INDEX IF NOT EXISTS idx_pairings_base ON pairings(base);
	CREATE INDEX IF NOT EXISTS idx_pairings_length ON pairings(length_days);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveDocument stores all pairings of a validated document, replacing any
// earlier load of the same month/year/carrier.
func (d *SQLiteDB) SaveDocument(doc *pairing.Document) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`DELETE FROM pairings WHERE month_code = ? AND year = ? AND codeshare = ?`,
		doc.MonthCode, doc.Year, doc.Codeshare)
	if err != nil {
		return fmt.Errorf("clear previous load: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pairings (month_code, year, codeshare, pairing_id, base,
			report_time, release_time, length_days, leg_count, deadhead_count,
			operating_days, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range doc.Pairings {
		p := &doc.Pairings[i]
		recordJSON, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal pairing %s: %w", p.ID, err)
		}
		daysJSON, err := json.Marshal(p.OperatingDays)
		if err != nil {
			return fmt.Errorf("marshal operating days %s: %w", p.ID, err)
		}
		_, err = stmt.Exec(doc.MonthCode, doc.Year, doc.Codeshare, p.ID, p.Base,
			p.ReportTime, p.ReleaseTime, p.LengthInDays, len(p.Legs),
			deadheadCount(p), string(daysJSON), string(recordJSON))
		if err != nil {
			return fmt.Errorf("insert pairing %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// PairingQuery filters stored pairings. Zero values deactivate a filter.
type PairingQuery struct {
	MonthCode string
	Year      string
	Codeshare string
	Base      string
	PairingID string
	LengthMax int
	Limit     int
	Offset    int
}

// ListPairings returns stored pairings matching the query, in load order.
func (d *SQLiteDB) ListPairings(q PairingQuery) ([]pairing.Pairing, error) {
	var conditions []string
	var args []interface{}

	if q.MonthCode != "" {
		conditions = append(conditions, "month_code = ?")
		args = append(args, q.MonthCode)
	}
	if q.Year != "" {
		conditions = append(conditions, "year = ?")
		args = append(args, q.Year)
	}
	if q.Codeshare != "" {
		conditions = append(conditions, "codeshare = ?")
		args = append(args, q.Codeshare)
	}
	if q.Base != "" {
		conditions = append(conditions, "base = ?")
		args = append(args, q.Base)
	}
	if q.PairingID != "" {
		conditions = append(conditions, "pairing_id = ?")
		args = append(args, q.PairingID)
	}
	if q.LengthMax != 0 {
		conditions = append(conditions, "length_days <= ?")
		args = append(args, q.LengthMax)
	}

	query := `SELECT record_json FROM pairings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	limit := 500
	if q.Limit > 0 {
		limit = q.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.Offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pairings: %w", err)
	}
	defer rows.Close()

	var out []pairing.Pairing
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("scan pairing: %w", err)
		}
		var p pairing.Pairing
		if err := json.Unmarshal([]byte(recordJSON), &p); err != nil {
			return nil, fmt.Errorf("unmarshal pairing: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPairings returns the number of stored pairings for one document.
func (d *SQLiteDB) CountPairings(monthCode, year, codeshare string) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM pairings WHERE month_code = ? AND year = ? AND codeshare = ?`,
		monthCode, year, codeshare).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pairings: %w", err)
	}
	return n, nil
}

func deadheadCount(p *pairing.Pairing) int {
	n := 0
	for i := range p.Legs {
		if p.Legs[i].IsDeadhead {
			n++
		}
	}
	return n
}
