package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaveBC/pairings/internal/pairing"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for server-mode storage:
// validated pairings plus document ingest state.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- One row per document submitted for parsing, whatever the outcome.
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id              SERIAL PRIMARY KEY,
		filename        TEXT NOT NULL,
		month_code      TEXT,
		year            TEXT,
		codeshare       TEXT,
		status          TEXT NOT NULL,
		pairing_count   INTEGER NOT NULL DEFAULT 0,
		error_pairing   TEXT,
		error_detail    TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_ingest_runs_status ON ingest_runs(status);

	CREATE TABLE IF NOT EXISTS pairings (
		id              SERIAL PRIMARY KEY,
		month_code      TEXT NOT NULL,
		year            TEXT NOT NULL,
		codeshare       TEXT NOT NULL,
		pairing_id      TEXT NOT NULL,
		base            TEXT NOT NULL,
		report_time     TEXT NOT NULL,
		release_time    TEXT NOT NULL,
		length_days     INTEGER NOT NULL,
		leg_count       INTEGER NOT NULL,
		deadhead_count  INTEGER NOT NULL,
		operating_days  JSONB NOT NULL,
		record          JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(month_code, year, codeshare, pairing_id)
	);

	CREATE INDEX IF NOT EXISTS idx_pg_pairings_document ON pairings(year, month_code, codeshare);
	CREATE INDEX IF NOT EXISTS idx_pg_pairings_base ON pairings(base);
	`
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create postgres schema: %w", err)
	}
	return nil
}

// IngestRun records the outcome of one document submission.
type IngestRun struct {
	Filename     string
	MonthCode    string
	Year         string
	Codeshare    string
	Status       string // "accepted" or "rejected".
	PairingCount int
	ErrorPairing string
	ErrorDetail  string
}

// RecordIngest inserts one ingest run and returns its id.
func (d *PostgresDB) RecordIngest(ctx context.Context, run IngestRun) (int64, error) {
	var id int64
	err := d.pool.QueryRow(ctx, `
		INSERT INTO ingest_runs (filename, month_code, year, codeshare, status,
			pairing_count, error_pairing, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.Filename, run.MonthCode, run.Year, run.Codeshare, run.Status,
		run.PairingCount, run.ErrorPairing, run.ErrorDetail).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record ingest run: %w", err)
	}
	return id, nil
}

// SaveDocument stores all pairings of a validated document in one
// transaction, replacing any earlier load of the same month/year/carrier.
func (d *PostgresDB) SaveDocument(ctx context.Context, doc *pairing.Document) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`DELETE FROM pairings WHERE month_code = $1 AND year = $2 AND codeshare = $3`,
		doc.MonthCode, doc.Year, doc.Codeshare)
	if err != nil {
		return fmt.Errorf("clear previous load: %w", err)
	}

	batch := &pgx.Batch{}
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
		batch.Queue(`
			INSERT INTO pairings (month_code, year, codeshare, pairing_id, base,
				report_time, release_time, length_days, leg_count, deadhead_count,
				operating_days, record)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			doc.MonthCode, doc.Year, doc.Codeshare, p.ID, p.Base,
			p.ReportTime, p.ReleaseTime, p.LengthInDays, len(p.Legs),
			deadheadCount(p), daysJSON, recordJSON)
	}

	br := tx.SendBatch(ctx, batch)
	for range doc.Pairings {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert pairing: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// ListPairings returns stored pairings matching the query, in load order.
func (d *PostgresDB) ListPairings(ctx context.Context, q PairingQuery) ([]pairing.Pairing, error) {
	var conditions []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if q.MonthCode != "" {
		add("month_code = $%d", q.MonthCode)
	}
	if q.Year != "" {
		add("year = $%d", q.Year)
	}
	if q.Codeshare != "" {
		add("codeshare = $%d", q.Codeshare)
	}
	if q.Base != "" {
		add("base = $%d", q.Base)
	}
	if q.PairingID != "" {
		add("pairing_id = $%d", q.PairingID)
	}
	if q.LengthMax != 0 {
		add("length_days <= $%d", q.LengthMax)
	}

	query := `SELECT record FROM pairings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	limit := 500
	if q.Limit > 0 {
		limit = q.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.Offset)

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pairings: %w", err)
	}
	defer rows.Close()

	var out []pairing.Pairing
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan pairing: %w", err)
		}
		var p pairing.Pairing
		if err := json.Unmarshal(record, &p); err != nil {
			return nil, fmt.Errorf("unmarshal pairing: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPairings returns the number of stored pairings for one document.
func (d *PostgresDB) CountPairings(ctx context.Context, monthCode, year, codeshare string) (int, error) {
	var n int
	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM pairings WHERE month_code = $1 AND year = $2 AND codeshare = $3`,
		monthCode, year, codeshare).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pairings: %w", err)
	}
	return n, nil
}
