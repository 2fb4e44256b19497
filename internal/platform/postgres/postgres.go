// Package postgres opens the relational connection pool and owns the schema.
package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" driver

	"empresaflow/internal/platform/config"
)

// Open connects with the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Schema creates the tables the service writes. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS empresas (
	empkey          BIGINT PRIMARY KEY,
	rut             TEXT NOT NULL,
	nombre          TEXT,
	nombre_fantasia TEXT,
	direccion       TEXT,
	telefono        TEXT,
	email           TEXT,
	created_by      TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS empresas_onboarding (
	empkey     BIGINT PRIMARY KEY REFERENCES empresas(empkey),
	estado     TEXT NOT NULL CHECK (estado IN ('pending', 'in_progress', 'completed', 'cancelled')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS empresa_history (
	id          UUID PRIMARY KEY,
	empkey      BIGINT NOT NULL,
	action      TEXT NOT NULL,
	actor       TEXT,
	detail      TEXT,
	client      TEXT,
	request_id  TEXT,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS empresa_history_empkey_idx ON empresa_history (empkey, occurred_at);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
