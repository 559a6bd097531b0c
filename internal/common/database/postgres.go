package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"realestate-workers/internal/common/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an already opened handle, e.g. a sqlmock connection.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// schemaStatements create the catalog and inquiry tables. Listings are
// managed elsewhere; this service only reads them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		property_type  TEXT NOT NULL,
		listing_status TEXT NOT NULL,
		price          NUMERIC(14,2) NOT NULL,
		currency       TEXT NOT NULL,
		bedrooms       INTEGER NOT NULL DEFAULT 0,
		bathrooms      NUMERIC(4,1) NOT NULL DEFAULT 0,
		area_sqm       NUMERIC(10,2) NOT NULL DEFAULT 0,
		address        TEXT NOT NULL DEFAULT '',
		city           TEXT NOT NULL DEFAULT '',
		state          TEXT NOT NULL DEFAULT '',
		features       TEXT[] NOT NULL DEFAULT '{}',
		agent_id       TEXT REFERENCES agents(id),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_features ON properties USING GIN (features)`,
	`CREATE TABLE IF NOT EXISTS inquiries (
		id           UUID PRIMARY KEY,
		property_id  TEXT NOT NULL REFERENCES properties(id),
		name         TEXT NOT NULL,
		email        TEXT NOT NULL,
		phone        TEXT,
		message      TEXT NOT NULL,
		source_query TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (property_id, email, message)
	)`,
}

// EnsureSchema applies the idempotent DDL.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
