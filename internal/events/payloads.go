package events

import (
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
)

// Position is a world coordinate handed to the presentation layer.
type Position struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// RoundStartedPayload announces the request shown on the request panel.
type RoundStartedPayload struct {
	Request   request.Request `json:"request"`
	PieceIDs  []string        `json:"piece_ids"`
	Scripted  bool            `json:"scripted"`
	Level     int             `json:"level"`
	MaxPieces int             `json:"max_pieces"`
}

type GenerationStartedPayload struct {
	Total    int     `json:"total"`
	Duration float64 `json:"duration_seconds"`
}

// PieceSpawnPayload asks the presentation layer to materialize one piece.
type PieceSpawnPayload struct {
	Index   int        `json:"index"`
	PieceID string     `json:"piece_id"`
	Kind    piece.Kind `json:"kind"`
	Tags    []string   `json:"tags"`
	Sprite  string     `json:"sprite"`
	Spawner int        `json:"spawner"`
}

type BuildStartedPayload struct {
	Seconds int `json:"seconds"`
}

type BuildCountdownPayload struct {
	Remaining int `json:"remaining"`
}

type BuildFinishedPayload struct {
	Completed bool         `json:"completed"`
	Missing   []piece.Kind `json:"missing,omitempty"`
}

type BuildSuccessPayload struct {
	Record   toy.Record `json:"record"`
	Score    int        `json:"score"`
	ToyCount int        `json:"toy_count"`
}

type GameOverPayload struct {
	ToysBuilt int `json:"toys_built"`
}

type SessionResetPayload struct {
	PreviousSessionID string `json:"previous_session_id"`
}

// PiecePayload covers attach and despawn: the piece and its anchor.
type PiecePayload struct {
	PieceID string     `json:"piece_id"`
	Anchor  piece.Kind `json:"anchor"`
}

// PieceDetachPayload carries the evicted piece and where it reappears.
type PieceDetachPayload struct {
	PieceID  string     `json:"piece_id"`
	Anchor   piece.Kind `json:"anchor"`
	Position Position   `json:"position"`
}

type ReviewStartedPayload struct {
	Total int `json:"total"`
}

type ReviewToyPayload struct {
	Index   int             `json:"index"`
	Request request.Request `json:"request"`
}

type ReviewPiecePayload struct {
	Index   int        `json:"index"`
	PieceID string     `json:"piece_id"`
	Anchor  piece.Kind `json:"anchor"`
}

type ReviewScorePayload struct {
	Index     int  `json:"index"`
	Score     int  `json:"score"`
	Satisfied bool `json:"satisfied"`
}

type ReviewFinishedPayload struct {
	Satisfied int `json:"satisfied"`
	Total     int `json:"total"`
}
