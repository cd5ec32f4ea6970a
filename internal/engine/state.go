package engine

import (
	"fmt"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
)

// Phase is the round state machine's current state.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseGeneration
	PhaseBuilding
	PhaseCleaning
	PhaseGameOver
)

var phaseNames = [...]string{
	PhaseWaiting:    "WAITING",
	PhaseGeneration: "PIECE_GENERATION",
	PhaseBuilding:   "BUILDING",
	PhaseCleaning:   "CLEANING",
	PhaseGameOver:   "GAME_OVER",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// ReviewProgress is how far the end-of-session review has got.
type ReviewProgress struct {
	Running   bool `json:"running"`
	Finished  bool `json:"finished"`
	Shown     int  `json:"shown"`
	Total     int  `json:"total"`
	Satisfied int  `json:"satisfied"`
}

// SessionState is a read-only snapshot of the engine, safe to hand to other goroutines.
type SessionState struct {
	Phase          Phase                   `json:"phase"`
	SessionID      string                  `json:"session_id"`
	Round          int                     `json:"round"`
	Level          int                     `json:"level"`
	MaxPieces      int                     `json:"max_pieces"`
	ToyCount       int                     `json:"toy_count"`
	Request        *request.Request        `json:"request,omitempty"`
	Scripted       bool                    `json:"scripted"`
	PendingPieces  []string                `json:"pending_pieces"`
	Slots          [piece.KindCount]string `json:"slots"`
	Records        int                     `json:"records"`
	Ready          bool                    `json:"ready"`
	ResetRequested bool                    `json:"reset_requested"`
	BuildRemaining int                     `json:"build_remaining"`
	Timeline       string                  `json:"timeline,omitempty"`
	Review         ReviewProgress          `json:"review"`
}
