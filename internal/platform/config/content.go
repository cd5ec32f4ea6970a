package config

import (
	"fmt"
	"math/rand"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/catalog"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
)

// ContentConfig points at the piece table and carries the authored content.
type ContentConfig struct {
	// CSV piece table with Type, Sprite and Tags columns
	CatalogPath string `mapstructure:"catalog_path" validate:"required"`

	// Directory holding <sprite>.png files; empty skips the asset check
	AssetsDir string `mapstructure:"assets_dir"`

	Names  []string      `mapstructure:"names" validate:"required,min=1,dive,required"`
	Tags   []string      `mapstructure:"tags" validate:"required,min=2,dive,required"`
	Sets   []SetConfig   `mapstructure:"sets" validate:"required,min=1,dive"`
	Levels []LevelConfig `mapstructure:"levels" validate:"dive"`
}

// SetConfig names a group of pieces guaranteed to appear together.
type SetConfig struct {
	Name   string   `mapstructure:"name" validate:"required"`
	Pieces []string `mapstructure:"pieces" validate:"required,min=1"`
}

// LevelConfig is one scripted round.
type LevelConfig struct {
	Name         string `mapstructure:"name" validate:"required"`
	Likes        string `mapstructure:"likes" validate:"required"`
	Dislikes     string `mapstructure:"dislikes" validate:"required"`
	IncludedSets []int  `mapstructure:"included_sets"`
	// Zero uses the session's current piece target
	MaxPieces int `mapstructure:"max_pieces" validate:"min=0"`
}

// Build loads the catalog and assembles the request generator.
func (c ContentConfig) Build(rng *rand.Rand) (engine.Content, error) {
	specs := make([]catalog.SetSpec, len(c.Sets))
	for i, s := range c.Sets {
		specs[i] = catalog.SetSpec{Name: s.Name, Pieces: s.Pieces}
	}

	var assets catalog.AssetResolver = catalog.AnyAsset{}
	if c.AssetsDir != "" {
		assets = catalog.DirAssets{Dir: c.AssetsDir}
	}

	cat, err := catalog.LoadFile(c.CatalogPath, assets, specs)
	if err != nil {
		return engine.Content{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	levels := make([]request.Level, len(c.Levels))
	for i, l := range c.Levels {
		levels[i] = request.Level{
			Request:      request.Request{Name: l.Name, Likes: l.Likes, Dislikes: l.Dislikes},
			IncludedSets: l.IncludedSets,
			MaxPieces:    l.MaxPieces,
		}
	}

	gen, err := request.NewGenerator(c.Names, c.Tags, cat.SetCount(), levels, rng)
	if err != nil {
		return engine.Content{}, fmt.Errorf("failed to build request generator: %w", err)
	}

	return engine.Content{Catalog: cat, Requests: gen}, nil
}
