// Package autoplay is a scripted player. It watches the event stream, keeps
// track of the pieces in play and picks the drops a reasonable kid would make.
// The simulator and the websocket playtester both drive it.
package autoplay

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

// Drop is one planned placement.
type Drop struct {
	PieceID string
	Anchor  piece.Kind
}

type spawned struct {
	id   string
	kind piece.Kind
	tags []string
}

// Player plans drops from what it has seen.
type Player struct {
	missRate float64
	rng      *rand.Rand

	request  *request.Request
	pieces   []spawned
	building bool
	planned  bool
	gameOver bool
}

// NewPlayer creates a player that leaves each anchor empty with probability
// missRate. missRate is clamped to [0, 1].
func NewPlayer(missRate float64, rng *rand.Rand) *Player {
	if missRate < 0 {
		missRate = 0
	}
	if missRate > 1 {
		missRate = 1
	}
	return &Player{missRate: missRate, rng: rng}
}

// Observe feeds one event to the player.
func (p *Player) Observe(e events.GameEvent) {
	switch e.Type {
	case events.EventTypeRoundStarted:
		if pl, ok := e.Payload.(events.RoundStartedPayload); ok {
			req := pl.Request
			p.request = &req
		}
		p.pieces = p.pieces[:0]
		p.building = false
		p.planned = false
		p.gameOver = false
	case events.EventTypePieceSpawn:
		if pl, ok := e.Payload.(events.PieceSpawnPayload); ok {
			p.pieces = append(p.pieces, spawned{id: pl.PieceID, kind: pl.Kind, tags: pl.Tags})
		}
	case events.EventTypeBuildStarted:
		p.building = true
	case events.EventTypeBuildFinished:
		p.building = false
	case events.EventTypeGameOver:
		p.building = false
		p.gameOver = true
	case events.EventTypeSessionReset:
		p.gameOver = false
		p.request = nil
		p.pieces = p.pieces[:0]
	}
}

// GameOver reports whether the last session ended and has not been reset.
func (p *Player) GameOver() bool {
	return p.gameOver
}

// NextDrops returns the drops for the current building phase, once. Later
// calls in the same round return nil.
func (p *Player) NextDrops() []Drop {
	if !p.building || p.planned || p.request == nil {
		return nil
	}
	p.planned = true
	return p.plan()
}

func (p *Player) plan() []Drop {
	var drops []Drop
	for _, kind := range piece.Kinds {
		if p.missRate > 0 && p.rng.Float64() < p.missRate {
			continue
		}
		best, bestScore := -1, 0
		for i, s := range p.pieces {
			if s.kind != kind {
				continue
			}
			sc := tagScore(*p.request, s.tags)
			if best < 0 || sc > bestScore {
				best, bestScore = i, sc
			}
		}
		if best >= 0 {
			drops = append(drops, Drop{PieceID: p.pieces[best].id, Anchor: kind})
		}
	}
	return drops
}

func tagScore(req request.Request, tags []string) int {
	score := 0
	for _, t := range tags {
		if strings.EqualFold(t, req.Likes) {
			score++
		}
		if strings.EqualFold(t, req.Dislikes) {
			score--
		}
	}
	return score
}

// wireEvent is a GameEvent as it arrives over the websocket.
type wireEvent struct {
	events.GameEvent
	Payload json.RawMessage `json:"payload"`
}

// DecodeFrame turns a websocket frame back into a GameEvent. Payloads the
// player reads are decoded into their typed structs; the rest are left raw.
// Frames without a type (or error frames) return ok=false.
func DecodeFrame(frame []byte) (events.GameEvent, bool, error) {
	var w wireEvent
	if err := json.Unmarshal(frame, &w); err != nil {
		return events.GameEvent{}, false, fmt.Errorf("decode frame: %w", err)
	}
	e := w.GameEvent
	if e.Type == "" || e.Type == "ERROR" {
		return e, false, nil
	}

	var err error
	switch e.Type {
	case events.EventTypeRoundStarted:
		var pl events.RoundStartedPayload
		err = json.Unmarshal(w.Payload, &pl)
		e.Payload = pl
	case events.EventTypePieceSpawn:
		var pl events.PieceSpawnPayload
		err = json.Unmarshal(w.Payload, &pl)
		e.Payload = pl
	default:
		e.Payload = w.Payload
	}
	if err != nil {
		return e, false, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return e, true, nil
}
