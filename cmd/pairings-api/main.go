// Package main provides the pairings-api server for parsed pairing documents.
//
// This is a standalone REST API server that accepts extracted bid-package
// text, parses and validates it, and serves the resulting pairing records.
// Accepted documents are stored in PostgreSQL, mirrored into ClickHouse for
// leg-level analytics, and published to a NATS subject for downstream
// consumers such as schedule UIs.
//
// Usage:
//
//	pairings-api [options]
//
// Options:
//
//	-pg-host HOST       PostgreSQL host (default: localhost, env: POSTGRES_HOST)
//	-pg-port PORT       PostgreSQL port (default: 5432, env: POSTGRES_PORT)
//	-pg-database DB     PostgreSQL database (default: pairings, env: POSTGRES_DATABASE)
//	-pg-user USER       PostgreSQL user (default: pairings, env: POSTGRES_USER)
//	-pg-password PASS   PostgreSQL password (default: pairings, env: POSTGRES_PASSWORD)
//	-ch-host HOST       ClickHouse host (default: localhost, env: CLICKHOUSE_HOST)
//	-ch-port PORT       ClickHouse port (default: 9000, env: CLICKHOUSE_PORT)
//	-ch-database DB     ClickHouse database (default: pairings, env: CLICKHOUSE_DATABASE)
//	-ch-user USER       ClickHouse user (default: default, env: CLICKHOUSE_USER)
//	-ch-password PASS   ClickHouse password (default: empty, env: CLICKHOUSE_PASSWORD)
//	-analytics          Enable the ClickHouse analytics backend
//	-nats-url URL       NATS server URL; empty disables publishing (env: NATS_URL)
//	-init-schema        Create database schemas and exit
//	-port N             HTTP port (default: 8082)
//	-auth               Enable API key authentication
//	-api-keys KEYS      Comma-separated list of valid API keys
//
// API Endpoints:
//
//	GET /api/v1/health
//	    Health check endpoint.
//
//	POST /api/v1/documents
//	    Submit extracted bid-package text (request body, plain text).
//	    Returns 201 with a document summary, or 422 with the field that
//	    rejected the document.
//
//	GET /api/v1/pairings
//	    List stored pairings. Query parameters: month, year, codeshare,
//	    base, id, limit, offset, plus filter parameters day, report_after,
//	    report_before, include, avoid, min_legs, max_legs, max_deadheads,
//	    min_layover, length.
//
//	GET /api/v1/pairings/{pairing_id}
//	    Get a single pairing, optionally narrowed by month/year/codeshare.
//
//	GET /api/v1/analytics/routes
//	    Most flown city pairs (requires -analytics).
//
//	GET /api/v1/analytics/equipment
//	    Block time by equipment code (requires -analytics).
//
// Authentication:
//
//	When -auth is enabled, requests must include an API key via:
//	  - X-API-Key header
//	  - Authorization: Bearer <key> header
//	  - ?api_key=<key> query parameter
package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/DaveBC/pairings/internal/api"
	"github.com/DaveBC/pairings/internal/feed"
	"github.com/DaveBC/pairings/internal/storage"
)

func main() {
	// Load .env if present; real environment wins.
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "pairings-api").Logger()

	// PostgreSQL connection flags.
	pgHost := flag.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := flag.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgUser := flag.String("pg-user", envOrDefault("POSTGRES_USER", "pairings"), "PostgreSQL user")
	pgPassword := flag.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "pairings"), "PostgreSQL password")
	pgDB := flag.String("pg-database", envOrDefault("POSTGRES_DATABASE", "pairings"), "PostgreSQL database")

	// ClickHouse connection flags.
	chHost := flag.String("ch-host", envOrDefault("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	chPort := flag.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", 9000), "ClickHouse port")
	chUser := flag.String("ch-user", envOrDefault("CLICKHOUSE_USER", "default"), "ClickHouse user")
	chPassword := flag.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", ""), "ClickHouse password")
	chDB := flag.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", "pairings"), "ClickHouse database")
	withAnalytics := flag.Bool("analytics", false, "Enable the ClickHouse analytics backend")

	// Feed flags.
	natsURL := flag.String("nats-url", envOrDefault("NATS_URL", ""), "NATS server URL (empty disables publishing)")

	// API server flags.
	port := flag.Int("port", 8082, "HTTP port for API server")
	authEnabled := flag.Bool("auth", false, "Enable API key authentication")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys (when auth enabled)")
	initSchema := flag.Bool("init-schema", false, "Create database schemas and exit")

	flag.Parse()

	ctx := context.Background()

	cfg := storage.ServerConfig{
		Postgres: storage.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			Database: *pgDB,
			User:     *pgUser,
			Password: *pgPassword,
		},
		ClickHouse: storage.ClickHouseConfig{
			Host:     *chHost,
			Port:     *chPort,
			Database: *chDB,
			User:     *chUser,
			Password: *chPassword,
		},
	}

	db, err := storage.OpenServer(ctx, cfg, *withAnalytics)
	if err != nil {
		logger.Fatal().Err(err).Msg("open databases")
	}
	defer db.Close()

	if *initSchema {
		if err := db.CreateSchemas(ctx); err != nil {
			logger.Fatal().Err(err).Msg("create schemas")
		}
		logger.Info().Msg("schemas created")
		return
	}

	var publisher api.FeedPublisher
	if *natsURL != "" {
		p, err := feed.Connect(*natsURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("url", *natsURL).Msg("connect to NATS")
		}
		defer p.Close()
		publisher = p
	}

	var analytics api.LegAnalytics
	if db.CH != nil {
		analytics = db.CH
	}

	// Parse API keys.
	var keys []string
	if *apiKeys != "" {
		keys = strings.Split(*apiKeys, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
	}

	server := api.NewServer(db.PG, analytics, publisher, logger, api.Config{
		Port:        *port,
		AuthEnabled: *authEnabled,
		APIKeys:     keys,
	})

	if err := server.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
