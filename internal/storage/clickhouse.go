package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/DaveBC/pairings/internal/pairing"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for leg-level analytics. The
// map layer derives route frequencies and fleet utilization from it.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS legs (
		month_code      LowCardinality(String),
		year            LowCardinality(String),
		codeshare       LowCardinality(String),
		pairing_id      String,
		sequence        UInt16,
		day_code        LowCardinality(String),
		is_deadhead     UInt8,
		flight_number   String,
		origin          LowCardinality(String),
		destination     LowCardinality(String),
		local_departure String,
		local_arrival   String,
		block_time      String,
		equipment_code  LowCardinality(String),
		created_at      DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY (year, month_code)
	ORDER BY (codeshare, origin, destination, pairing_id, sequence)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create legs table: %w", err)
	}
	return nil
}

// InsertLegs batch-inserts every leg of a validated document.
func (d *ClickHouseDB) InsertLegs(ctx context.Context, doc *pairing.Document) error {
	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO legs (month_code, year, codeshare, pairing_id, sequence,
			day_code, is_deadhead, flight_number, origin, destination,
			local_departure, local_arrival, block_time, equipment_code)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range doc.Pairings {
		p := &doc.Pairings[i]
		for seq := range p.Legs {
			l := &p.Legs[seq]
			deadhead := uint8(0)
			if l.IsDeadhead {
				deadhead = 1
			}
			err = batch.Append(doc.MonthCode, doc.Year, doc.Codeshare, p.ID,
				uint16(seq), l.DayCode, deadhead, l.FlightNumber,
				l.Origin, l.Destination, l.LocalDeparture, l.LocalArrival,
				l.BlockTime, l.EquipmentCode)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// RouteCount is one origin-destination pair with its monthly frequency.
type RouteCount struct {
	Origin    string `json:"origin"`
	Dest      string `json:"destination"`
	Flights   uint64 `json:"flights"`
	Deadheads uint64 `json:"deadheads"`
}

// TopRoutes returns the most flown city pairs, optionally narrowed to one
// carrier.
func (d *ClickHouseDB) TopRoutes(ctx context.Context, codeshare string, limit int) ([]RouteCount, error) {
	if limit <= 0 {
		limit = 25
	}

	query := `SELECT origin, destination, count() AS flights,
			countIf(is_deadhead = 1) AS deadheads
		FROM legs`
	var args []interface{}
	if codeshare != "" {
		query += ` WHERE codeshare = ?`
		args = append(args, codeshare)
	}
	query += fmt.Sprintf(` GROUP BY origin, destination ORDER BY flights DESC LIMIT %d`, limit)

	rows, err := d.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top routes: %w", err)
	}
	defer rows.Close()

	var out []RouteCount
	for rows.Next() {
		var rc RouteCount
		if err := rows.Scan(&rc.Origin, &rc.Dest, &rc.Flights, &rc.Deadheads); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// EquipmentCount is one fleet code with the number of legs flown on it.
type EquipmentCount struct {
	EquipmentCode string `json:"equipment_code"`
	Legs          uint64 `json:"legs"`
}

// EquipmentUtilization returns leg counts per fleet code.
func (d *ClickHouseDB) EquipmentUtilization(ctx context.Context) ([]EquipmentCount, error) {
	rows, err := d.conn.Query(ctx, `
		SELECT equipment_code, count() AS legs
		FROM legs
		GROUP BY equipment_code
		ORDER BY legs DESC`)
	if err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	defer rows.Close()

	var out []EquipmentCount
	for rows.Next() {
		var ec EquipmentCount
		if err := rows.Scan(&ec.EquipmentCode, &ec.Legs); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}
