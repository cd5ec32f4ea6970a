// Package storage - postgres.go
// PostgreSQL implementation of the event log and toy archive, through the
// pgx database/sql driver.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// InitPostgres opens a PostgreSQL database and creates the schemas.
func InitPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	if err := createSchemas(db, postgresSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

var postgresSchemas = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		event_type TEXT NOT NULL,
		round INTEGER NOT NULL,
		payload JSONB NOT NULL
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
		satisfied BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_round ON events(session_id, round);`,
	`CREATE INDEX IF NOT EXISTS idx_toy_records_session_id ON toy_records(session_id);`,
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event GameEvent) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		event.Timestamp,
		event.EventType,
		event.Round,
		string(event.Payload),
	)

	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetBySessionID retrieves all events for a session.
func (r *PostgresEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE session_id = $1
		ORDER BY timestamp ASC
	`

	return queryEvents(ctx, r.db, query, sessionID)
}

// GetByEventType retrieves all events of a specific type.
func (r *PostgresEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE session_id = $1 AND event_type = $2
		ORDER BY timestamp ASC
	`

	return queryEvents(ctx, r.db, query, sessionID, eventType)
}

// GetByRound retrieves all events from one round.
func (r *PostgresEventRepository) GetByRound(ctx context.Context, sessionID string, round int) ([]GameEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE session_id = $1 AND round = $2
		ORDER BY timestamp ASC
	`

	return queryEvents(ctx, r.db, query, sessionID, round)
}

// PostgresToyRecordRepository implements ToyRecordRepository using PostgreSQL.
type PostgresToyRecordRepository struct {
	db *sql.DB
}

func NewPostgresToyRecordRepository(db *sql.DB) *PostgresToyRecordRepository {
	return &PostgresToyRecordRepository{db: db}
}

func (r *PostgresToyRecordRepository) Save(ctx context.Context, rec ToyRecord) error {
	query := `
		INSERT INTO toy_records (` + toyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, toyArgs(rec)...); err != nil {
		return fmt.Errorf("failed to save toy %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PostgresToyRecordRepository) GetBySessionID(ctx context.Context, sessionID string) ([]ToyRecord, error) {
	query := `SELECT ` + toyColumns + ` FROM toy_records WHERE session_id = $1 ORDER BY completed_at ASC`
	return queryToys(ctx, r.db, query, sessionID)
}

func (r *PostgresToyRecordRepository) ListSessions(ctx context.Context) ([]string, error) {
	query := `SELECT session_id FROM toy_records GROUP BY session_id ORDER BY MAX(completed_at) DESC`
	return querySessions(ctx, r.db, query)
}

var (
	_ EventRepository     = (*PostgresEventRepository)(nil)
	_ ToyRecordRepository = (*PostgresToyRecordRepository)(nil)
	_ EventRepository     = (*SQLiteEventRepository)(nil)
	_ ToyRecordRepository = (*SQLiteToyRecordRepository)(nil)
)
