// Package request defines customer requests and how they are picked each round.
// This package is PURE and must NOT import any infrastructure packages.
package request

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

var (
	ErrNoNames               = errors.New("request: name pool is empty")
	ErrTagVocabularyTooSmall = errors.New("request: tag vocabulary needs at least two distinct tags")
	ErrNoSets                = errors.New("request: at least one mandatory piece set is required")
	ErrInvalidLevel          = errors.New("request: invalid scripted level")
)

// Request is a round's scoring criterion: a named kid with one liked and one disliked tag.
type Request struct {
	Name         string `json:"name"`
	Likes        string `json:"likes"`
	Dislikes     string `json:"dislikes"`
	MandatorySet int    `json:"mandatory_set"`
}

// Level is a pre-authored round: its request, the sets it guarantees and its piece target.
type Level struct {
	Request      Request `json:"request"`
	IncludedSets []int   `json:"included_sets"`
	MaxPieces    int     `json:"max_pieces"`
}

// Generator produces the request for each round.
type Generator struct {
	names    []string
	tags     []string
	setCount int
	levels   []Level
	rng      *rand.Rand
}

// NewGenerator validates the pools and scripted levels up front so Random never fails.
func NewGenerator(names, tags []string, setCount int, levels []Level, rng *rand.Rand) (*Generator, error) {
	names = dedupe(names)
	tags = dedupe(tags)

	if len(names) == 0 {
		return nil, ErrNoNames
	}
	if len(tags) < 2 {
		return nil, ErrTagVocabularyTooSmall
	}
	if setCount <= 0 {
		return nil, ErrNoSets
	}
	for i, lvl := range levels {
		if err := checkLevel(lvl, setCount); err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
	}

	return &Generator{
		names:    names,
		tags:     tags,
		setCount: setCount,
		levels:   levels,
		rng:      rng,
	}, nil
}

func checkLevel(lvl Level, setCount int) error {
	if strings.EqualFold(lvl.Request.Likes, lvl.Request.Dislikes) {
		return fmt.Errorf("%w: likes and dislikes are both %q", ErrInvalidLevel, lvl.Request.Likes)
	}
	if lvl.MaxPieces < 0 {
		return fmt.Errorf("%w: negative max pieces", ErrInvalidLevel)
	}
	for _, idx := range lvl.IncludedSets {
		if idx < 0 || idx >= setCount {
			return fmt.Errorf("%w: set index %d out of range [0,%d)", ErrInvalidLevel, idx, setCount)
		}
	}
	return nil
}

// Random draws a fresh request. The disliked tag is drawn from the tags left
// after removing the liked one, so the two are never equal.
func (g *Generator) Random() Request {
	likedIdx := g.rng.Intn(len(g.tags))
	dislikedIdx := g.rng.Intn(len(g.tags) - 1)
	if dislikedIdx >= likedIdx {
		dislikedIdx++
	}

	return Request{
		Name:         g.names[g.rng.Intn(len(g.names))],
		Likes:        g.tags[likedIdx],
		Dislikes:     g.tags[dislikedIdx],
		MandatorySet: g.rng.Intn(g.setCount),
	}
}

// ForLevel returns the scripted level at index level, or false once the script is exhausted.
func (g *Generator) ForLevel(level int) (Level, bool) {
	if level < 0 || level >= len(g.levels) {
		return Level{}, false
	}
	return g.levels[level], true
}

// LevelCount is the number of scripted levels.
func (g *Generator) LevelCount() int {
	return len(g.levels)
}

// SetCount is the number of mandatory piece sets requests can point at.
func (g *Generator) SetCount() int {
	return g.setCount
}

// dedupe drops blanks and case-insensitive repeats, keeping the first spelling.
// Scoring ignores case, so "Red" and "red" are one tag.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
