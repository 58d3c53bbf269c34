package database

import (
	"context"
	"database/sql"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		arguments_json TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sent_occurrences (
		notification_id TEXT NOT NULL,
		occurrence_at TEXT NOT NULL,
		content TEXT NOT NULL,
		delivery_response TEXT NOT NULL,
		PRIMARY KEY (notification_id, occurrence_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_active ON notifications(active)`,
	`CREATE INDEX IF NOT EXISTS idx_sent_occurrences_at ON sent_occurrences(occurrence_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		kind VARCHAR(64) NOT NULL,
		arguments JSONB NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sent_occurrences (
		notification_id TEXT NOT NULL REFERENCES notifications(id) ON DELETE CASCADE,
		occurrence_at TIMESTAMPTZ NOT NULL,
		content TEXT NOT NULL,
		delivery_response TEXT NOT NULL,
		CONSTRAINT sent_occurrences_pkey PRIMARY KEY (notification_id, occurrence_at)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_active ON notifications(active)`,
	`CREATE INDEX IF NOT EXISTS idx_sent_occurrences_at ON sent_occurrences(occurrence_at)`,
}

// RunMigrations creates the schema for the given driver. Safe to run on every start.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverSQLite:
		statements = sqliteSchema
	case DriverPostgres:
		statements = postgresSchema
	default:
		return fmt.Errorf("no schema for driver %s", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}
