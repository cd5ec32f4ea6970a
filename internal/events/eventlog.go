// Package events provides the append-only log of everything the round server
// tells its presentation collaborators. Every outbound notification is a GameEvent.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	// Round flow
	EventTypeRoundStarted      EventType = "ROUND_STARTED"
	EventTypeGenerationStarted EventType = "GENERATION_STARTED"
	EventTypePieceSpawn        EventType = "PIECE_SPAWN"
	EventTypeGenerationEmpty   EventType = "GENERATION_EMPTY"
	EventTypeBuildStarted      EventType = "BUILD_STARTED"
	EventTypeBuildCountdown    EventType = "BUILD_COUNTDOWN"
	EventTypeBuildFinished     EventType = "BUILD_FINISHED"
	EventTypeBuildSuccess      EventType = "BUILD_SUCCESS"
	EventTypeCleaningStarted   EventType = "CLEANING_STARTED"
	EventTypeCleaningFinished  EventType = "CLEANING_FINISHED"
	EventTypeGameOver          EventType = "GAME_OVER"
	EventTypeSessionReset      EventType = "SESSION_RESET"

	// Toy assembly
	EventTypePieceAttach  EventType = "PIECE_ATTACH"
	EventTypePieceDetach  EventType = "PIECE_DETACH"
	EventTypePieceDespawn EventType = "PIECE_DESPAWN"

	// End-of-session review
	EventTypeReviewStarted       EventType = "REVIEW_STARTED"
	EventTypeReviewToyShown      EventType = "REVIEW_TOY_SHOWN"
	EventTypeReviewPieceRevealed EventType = "REVIEW_PIECE_REVEALED"
	EventTypeReviewToyScored     EventType = "REVIEW_TOY_SCORED"
	EventTypeReviewToyCleared    EventType = "REVIEW_TOY_CLEARED"
	EventTypeReviewFinished      EventType = "REVIEW_FINISHED"
)

// GameEvent represents an immutable record of something the engine announced.
type GameEvent struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Round     int         `json:"round"`   // Rounds started in the session, 1-based
	Payload   interface{} `json:"payload"` // Event-specific data, see payloads.go
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events, optionally
// written through to a persister.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
	onError   func(GameEvent, error)
	pending   sync.WaitGroup
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// OnPersistError registers a callback for failed write-throughs.
func (el *EventLog) OnPersistError(fn func(GameEvent, error)) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onError = fn
}

// Append adds a new event to the log. Events are immutable once appended.
// Missing IDs and timestamps are filled in.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = NewID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	persister, onError := el.persister, el.onError
	el.mu.Unlock()

	if persister != nil {
		el.pending.Add(1)
		go func(e GameEvent) {
			defer el.pending.Done()
			if err := persister.Append(e); err != nil && onError != nil {
				onError(e, err)
			}
		}(event)
	}
	return event
}

// Flush blocks until every write-through started so far has returned.
func (el *EventLog) Flush() {
	el.pending.Wait()
}

// Len is the number of events appended so far.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Since returns the events appended after the first n.
func (el *EventLog) Since(n int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(el.events) {
		return nil
	}
	out := make([]GameEvent, len(el.events)-n)
	copy(out, el.events[n:])
	return out
}

// ByType returns all events of the given type in append order.
func (el *EventLog) ByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// ByRound returns all events of one round of one session.
func (el *EventLog) ByRound(sessionID string, round int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SessionID == sessionID && e.Round == round {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history of events.
func (el *EventLog) Replay() []GameEvent {
	return el.Since(0)
}

// NewID creates a unique identifier for events, sessions and toy records.
func NewID() string {
	return uuid.NewString()
}
