package config

import (
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	base := engine.DefaultSettings()

	// Game defaults
	if cfg.Game.PiecesPerRound == 0 {
		cfg.Game.PiecesPerRound = base.PiecesPerRound
	}
	if cfg.Game.SpawnDuration == 0 {
		cfg.Game.SpawnDuration = base.SpawnDuration
	}
	if cfg.Game.BuildingSeconds == nil {
		seconds := base.BuildingSeconds
		cfg.Game.BuildingSeconds = &seconds
	}
	if cfg.Game.CleaningDuration == 0 {
		cfg.Game.CleaningDuration = base.CleaningDuration
	}
	if cfg.Game.ReviewPieceDelay == 0 {
		cfg.Game.ReviewPieceDelay = base.ReviewPieceDelay
	}
	if cfg.Game.ReviewPause == 0 {
		cfg.Game.ReviewPause = base.ReviewPause
	}
	if cfg.Game.Spawners == 0 {
		cfg.Game.Spawners = base.Spawners
	}

	// Content defaults
	if cfg.Content.CatalogPath == "" {
		cfg.Content.CatalogPath = "configs/pieces.csv"
	}
	if len(cfg.Content.Names) == 0 {
		cfg.Content.Names = []string{"Ana", "Leo", "Mia", "Hugo", "Lucia"}
	}
	if len(cfg.Content.Tags) == 0 {
		cfg.Content.Tags = []string{"robot", "bear", "pirate"}
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.TickRate == 0 {
		cfg.Server.TickRate = 50 * time.Millisecond
	}

	// Storage defaults
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/toys.db"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	// Tuning defaults come from the selected profile
	profile, err := TuningProfile(cfg.Tuning.Profile)
	if err != nil {
		// left for validation to report
		return
	}
	cfg.Tuning.fillFrom(profile)
}
