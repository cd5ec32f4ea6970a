// Package storage - reconstructor.go
// Session history: rebuilds what happened in a session from the persisted
// event log and the toy archive.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

// Reconstructor rebuilds session summaries from the event log.
// This is used for:
// 1. The /api/history endpoint
// 2. The headless simulator's per-session report
type Reconstructor struct {
	eventRepo EventRepository
	toyRepo   ToyRecordRepository
}

// NewReconstructor creates a new session reconstructor.
func NewReconstructor(eventRepo EventRepository, toyRepo ToyRecordRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo, toyRepo: toyRepo}
}

// SessionHistory is the rebuilt outcome of one session.
type SessionHistory struct {
	SessionID string       `json:"session_id"`
	Rounds    int          `json:"rounds"`
	ToysBuilt int          `json:"toys_built"`
	GameOver  bool         `json:"game_over"`
	Satisfied int          `json:"satisfied"`
	Toys      []ToyRecord  `json:"toys"`
	Recap     []RecapEvent `json:"recap"`
}

// RecapEvent is a simplified event for the history screen.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	Round     int    `json:"round"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// RebuildSession reconstructs a session's outcome from its events and archived toys.
func (r *Reconstructor) RebuildSession(ctx context.Context, sessionID string) (*SessionHistory, error) {
	evs, err := r.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for session: %w", err)
	}
	toys, err := r.toyRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get toys for session: %w", err)
	}

	h := &SessionHistory{SessionID: sessionID, Toys: toys}
	for _, t := range toys {
		if t.Satisfied {
			h.Satisfied++
		}
	}

	// Process events in chronological order
	for _, e := range evs {
		r.applyEvent(h, e)
		if summary := r.summarizeEvent(e); summary != "" {
			h.Recap = append(h.Recap, RecapEvent{
				Timestamp: e.Timestamp.Format("15:04:05"),
				Round:     e.Round,
				EventType: e.EventType,
				Summary:   summary,
				Impact:    r.determineImpact(e),
			})
		}
	}

	return h, nil
}

// applyEvent folds one event into the history.
func (r *Reconstructor) applyEvent(h *SessionHistory, e GameEvent) {
	switch events.EventType(e.EventType) {
	case events.EventTypeRoundStarted:
		if e.Round > h.Rounds {
			h.Rounds = e.Round
		}
	case events.EventTypeBuildSuccess:
		h.ToysBuilt++
	case events.EventTypeGameOver:
		h.GameOver = true
	}
}

// summarizeEvent creates a human-readable summary. Per-piece chatter gives "".
func (r *Reconstructor) summarizeEvent(e GameEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeRoundStarted:
		var p events.RoundStartedPayload
		if json.Unmarshal(e.Payload, &p) != nil {
			return "A new round started."
		}
		return fmt.Sprintf("%s asked for a toy: likes %s, dislikes %s.", p.Request.Name, p.Request.Likes, p.Request.Dislikes)
	case events.EventTypeBuildSuccess:
		var p events.BuildSuccessPayload
		if json.Unmarshal(e.Payload, &p) != nil {
			return "A toy was finished."
		}
		return fmt.Sprintf("Toy #%d finished with score %d.", p.ToyCount, p.Score)
	case events.EventTypeBuildFinished:
		var p events.BuildFinishedPayload
		if json.Unmarshal(e.Payload, &p) == nil && !p.Completed {
			return fmt.Sprintf("Time ran out with %d anchors empty.", len(p.Missing))
		}
		return ""
	case events.EventTypeGameOver:
		return "Game over."
	case events.EventTypeReviewFinished:
		var p events.ReviewFinishedPayload
		if json.Unmarshal(e.Payload, &p) != nil {
			return "The review finished."
		}
		return fmt.Sprintf("%d of %d kids were satisfied.", p.Satisfied, p.Total)
	default:
		return ""
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e GameEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeBuildSuccess:
		return "POSITIVE"
	case events.EventTypeBuildFinished, events.EventTypeGameOver:
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}
