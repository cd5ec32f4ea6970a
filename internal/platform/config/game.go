package config

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

// GameConfig holds the round timings and toy layout.
type GameConfig struct {
	// Pieces spawned per round before difficulty grows
	PiecesPerRound int `mapstructure:"pieces_per_round" validate:"min=1"`

	// Window over which a round's pieces are spawned
	SpawnDuration time.Duration `mapstructure:"spawn_duration" validate:"min=0"`

	// Whole seconds of building; zero ends the phase on the next tick.
	// Nil means unset.
	BuildingSeconds *int `mapstructure:"building_seconds" validate:"omitempty,min=0"`

	CleaningDuration time.Duration `mapstructure:"cleaning_duration" validate:"min=0"`
	ReviewPieceDelay time.Duration `mapstructure:"review_piece_delay" validate:"min=0"`
	ReviewPause      time.Duration `mapstructure:"review_pause" validate:"min=0"`

	Spawners int `mapstructure:"spawners" validate:"min=1"`

	// Start rounds without waiting for a READY
	AutoReady bool `mapstructure:"auto_ready"`

	// Restore the base piece target when a new session starts
	ResetDifficultyOnRestart bool `mapstructure:"reset_difficulty_on_restart"`

	// Anchor positions keyed by kind name (body, head, r_arm, l_arm, legs)
	Anchors map[string]events.Position `mapstructure:"anchors"`
}

// EngineSettings converts the game section into engine settings.
func (g GameConfig) EngineSettings() (engine.Settings, error) {
	s := engine.DefaultSettings()
	s.PiecesPerRound = g.PiecesPerRound
	s.SpawnDuration = g.SpawnDuration
	if g.BuildingSeconds != nil {
		s.BuildingSeconds = *g.BuildingSeconds
	}
	s.CleaningDuration = g.CleaningDuration
	s.ReviewPieceDelay = g.ReviewPieceDelay
	s.ReviewPause = g.ReviewPause
	s.Spawners = g.Spawners
	s.AutoReady = g.AutoReady
	s.ResetDifficultyOnRestart = g.ResetDifficultyOnRestart

	for name, pos := range g.Anchors {
		k, err := piece.ParseKind(name)
		if err != nil {
			return engine.Settings{}, fmt.Errorf("anchor %q: %w", name, err)
		}
		s.Anchors[k] = pos
	}
	return s, nil
}
