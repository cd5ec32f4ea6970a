// Package storage provides the persistence layer for the toy workshop server.
// The engine only sees the events.EventPersister and engine.RecordArchive
// interfaces; the SQL lives here.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/rules"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

var (
	ErrUnknownDriver = errors.New("storage: unknown driver")
	ErrEmptyDSN      = errors.New("storage: empty data source")
)

// GameEvent mirrors events.GameEvent for persistence. The payload is kept as
// the JSON it was written with.
type GameEvent struct {
	ID        string          `json:"id" db:"id"`
	SessionID string          `json:"session_id" db:"session_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	Round     int             `json:"round" db:"round"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
}

// ToyRecord is an archived finished toy with the score it got.
type ToyRecord struct {
	ID           string                  `json:"id" db:"id"`
	SessionID    string                  `json:"session_id" db:"session_id"`
	Level        int                     `json:"level" db:"level"`
	RequestName  string                  `json:"request_name" db:"request_name"`
	Likes        string                  `json:"likes" db:"likes"`
	Dislikes     string                  `json:"dislikes" db:"dislikes"`
	MandatorySet int                     `json:"mandatory_set" db:"mandatory_set"`
	PieceIDs     [piece.KindCount]string `json:"piece_ids" db:"-"`
	Score        int                     `json:"score" db:"score"`
	Satisfied    bool                    `json:"satisfied" db:"satisfied"`
	CompletedAt  time.Time               `json:"completed_at" db:"completed_at"`
}

// EventRepository defines event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetBySessionID retrieves all events of a session in write order.
	GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type in a session.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error)

	// GetByRound retrieves all events of one round.
	GetByRound(ctx context.Context, sessionID string, round int) ([]GameEvent, error)
}

// ToyRecordRepository archives finished toys.
type ToyRecordRepository interface {
	Save(ctx context.Context, rec ToyRecord) error
	GetBySessionID(ctx context.Context, sessionID string) ([]ToyRecord, error)
	// ListSessions returns the archived session IDs, most recent first.
	ListSessions(ctx context.Context) ([]string, error)
}

// FromEvent converts a domain event into its persisted form.
func FromEvent(e events.GameEvent) (GameEvent, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return GameEvent{}, fmt.Errorf("failed to marshal payload of %s: %w", e.Type, err)
	}
	return GameEvent{
		ID:        e.ID,
		SessionID: e.SessionID,
		Timestamp: e.Timestamp.UTC(),
		EventType: string(e.Type),
		Round:     e.Round,
		Payload:   payload,
	}, nil
}

// FromRecord converts a finished toy into its archived form.
func FromRecord(sessionID string, rec toy.Record, score int) ToyRecord {
	return ToyRecord{
		ID:           rec.ID,
		SessionID:    sessionID,
		Level:        rec.Level,
		RequestName:  rec.Request.Name,
		Likes:        rec.Request.Likes,
		Dislikes:     rec.Request.Dislikes,
		MandatorySet: rec.Request.MandatorySet,
		PieceIDs:     rec.Pieces.IDs(),
		Score:        score,
		Satisfied:    rules.IsSatisfied(score),
		CompletedAt:  rec.CompletedAt.UTC(),
	}
}
