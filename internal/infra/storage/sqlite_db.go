package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite opens the local SQLite database and creates the event log and
// toy archive schemas.
func InitSQLite(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, ErrEmptyDSN
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Event write-through runs from many goroutines; SQLite takes one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db, sqliteSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

var sqliteSchemas = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		event_type TEXT NOT NULL,
		round INTEGER NOT NULL,
		payload TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS toy_records (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		request_name TEXT NOT NULL,
		likes TEXT NOT NULL,
		dislikes TEXT NOT NULL,
		mandatory_set INTEGER NOT NULL,
		body_id TEXT NOT NULL,
		head_id TEXT NOT NULL,
		right_arm_id TEXT NOT NULL,
		left_arm_id TEXT NOT NULL,
		legs_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		satisfied BOOLEAN NOT NULL DEFAULT 0,
		completed_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_round ON events(session_id, round);`,
	`CREATE INDEX IF NOT EXISTS idx_toy_records_session_id ON toy_records(session_id);`,
}

func createSchemas(db *sql.DB, schemas []string) error {
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
