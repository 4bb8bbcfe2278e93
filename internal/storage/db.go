package storage

import (
	"context"
	"fmt"
)

// ServerConfig holds database connection settings for the API server.
type ServerConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
}

// DefaultServerConfig returns a configuration with local development
// settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "pairings",
			User:     "pairings",
			Password: "pairings",
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "pairings",
			User:     "default",
			Password: "",
		},
	}
}

// ServerDB bundles the API server backends: PostgreSQL for pairing records
// and ingest state, ClickHouse for leg analytics. ClickHouse is optional;
// analytics endpoints report unavailable without it.
type ServerDB struct {
	PG *PostgresDB
	CH *ClickHouseDB
}

// OpenServer opens PostgreSQL and, when withAnalytics is set, ClickHouse.
func OpenServer(ctx context.Context, cfg ServerConfig, withAnalytics bool) (*ServerDB, error) {
	pg, err := OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	db := &ServerDB{PG: pg}
	if withAnalytics {
		ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		db.CH = ch
	}
	return db, nil
}

// CreateSchemas creates the schemas in every open backend.
func (d *ServerDB) CreateSchemas(ctx context.Context) error {
	if err := d.PG.CreateSchema(ctx); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	if d.CH != nil {
		if err := d.CH.CreateSchema(ctx); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return nil
}

// Close closes every open backend.
func (d *ServerDB) Close() error {
	var firstErr error
	if d.CH != nil {
		if err := d.CH.Close(); err != nil {
			firstErr = fmt.Errorf("clickhouse: %w", err)
		}
	}
	if d.PG != nil {
		d.PG.Close()
	}
	return firstErr
}
