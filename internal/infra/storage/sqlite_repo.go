package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const eventColumns = `id, session_id, timestamp, event_type, round, payload`

const toyColumns = `id, session_id, level, request_name, likes, dislikes, mandatory_set,
	body_id, head_id, right_arm_id, left_arm_id, legs_id, score, satisfied, completed_at`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, event.Round, string(event.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? ORDER BY timestamp ASC`
	return queryEvents(ctx, r.db, query, sessionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return queryEvents(ctx, r.db, query, sessionID, eventType)
}

func (r *SQLiteEventRepository) GetByRound(ctx context.Context, sessionID string, round int) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? AND round = ? ORDER BY timestamp ASC`
	return queryEvents(ctx, r.db, query, sessionID, round)
}

// ---------------------------------------------------------
// SQLiteToyRecordRepository
// ---------------------------------------------------------

type SQLiteToyRecordRepository struct {
	db *sql.DB
}

func NewSQLiteToyRecordRepository(db *sql.DB) *SQLiteToyRecordRepository {
	return &SQLiteToyRecordRepository{db: db}
}

func (r *SQLiteToyRecordRepository) Save(ctx context.Context, rec ToyRecord) error {
	query := `
		INSERT INTO toy_records (` + toyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, toyArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to save toy %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteToyRecordRepository) GetBySessionID(ctx context.Context, sessionID string) ([]ToyRecord, error) {
	query := `SELECT ` + toyColumns + ` FROM toy_records WHERE session_id = ? ORDER BY completed_at ASC`
	return queryToys(ctx, r.db, query, sessionID)
}

func (r *SQLiteToyRecordRepository) ListSessions(ctx context.Context) ([]string, error) {
	query := `SELECT session_id FROM toy_records GROUP BY session_id ORDER BY MAX(completed_at) DESC`
	return querySessions(ctx, r.db, query)
}

// ---------------------------------------------------------
// Row helpers shared by the SQL dialects
// ---------------------------------------------------------

func queryEvents(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payload string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.Round, &payload); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

func toyArgs(rec ToyRecord) []interface{} {
	return []interface{}{
		rec.ID, rec.SessionID, rec.Level, rec.RequestName, rec.Likes, rec.Dislikes, rec.MandatorySet,
		rec.PieceIDs[0], rec.PieceIDs[1], rec.PieceIDs[2], rec.PieceIDs[3], rec.PieceIDs[4],
		rec.Score, rec.Satisfied, rec.CompletedAt,
	}
}

func queryToys(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]ToyRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query toys: %w", err)
	}
	defer rows.Close()

	var toys []ToyRecord
	for rows.Next() {
		var t ToyRecord
		err := rows.Scan(
			&t.ID, &t.SessionID, &t.Level, &t.RequestName, &t.Likes, &t.Dislikes, &t.MandatorySet,
			&t.PieceIDs[0], &t.PieceIDs[1], &t.PieceIDs[2], &t.PieceIDs[3], &t.PieceIDs[4],
			&t.Score, &t.Satisfied, &t.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		toys = append(toys, t)
	}
	return toys, rows.Err()
}

func querySessions(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
