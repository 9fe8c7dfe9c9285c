package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ConnectPostgres opens the identity database and creates its tables.
func ConnectPostgres(ctx context.Context, postgresURI string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	if err := InitPostgresTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("PostgreSQL tables initialized")
	return db, nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
// Emails are stored lower-cased, so the unique constraint is case-insensitive.
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS identities (
			id UUID PRIMARY KEY,
			email VARCHAR(320) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT identities_email_key UNIQUE (email)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_identities_created_at ON identities(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("init postgres tables: %w", err)
		}
	}
	return nil
}
