// Package catalog loads the piece table and the mandatory piece sets.
// The catalog is read-only once loaded.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
)

var (
	ErrBadKind        = errors.New("piece type is not a valid integer kind code")
	ErrMissingSprite  = errors.New("sprite is missing")
	ErrMissingTags    = errors.New("tags are missing")
	ErrDuplicatePiece = errors.New("sprite is used by more than one piece")
	ErrUnknownPiece   = errors.New("set references an unknown piece")
	ErrMissingColumn  = errors.New("required column is missing")
	ErrEmptyCatalog   = errors.New("catalog has no pieces")
)

// LoadError reports the first malformed row or set of a catalog load.
// Row is 1-based and counts the header; it is 0 for errors outside the table.
type LoadError struct {
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("catalog: row %d column %s: %v", e.Row, e.Column, e.Err)
	}
	if e.Column != "" {
		return fmt.Sprintf("catalog: %s: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("catalog: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// AssetResolver tells the loader whether a sprite key names a real asset.
type AssetResolver interface {
	Exists(key string) bool
}

// DirAssets resolves sprite keys to <Dir>/<key>.png.
type DirAssets struct {
	Dir string
}

func (d DirAssets) Exists(key string) bool {
	info, err := os.Stat(filepath.Join(d.Dir, key+".png"))
	return err == nil && !info.IsDir()
}

// AnyAsset accepts every non-empty key. Used by headless runs with no art.
type AnyAsset struct{}

func (AnyAsset) Exists(key string) bool {
	return key != ""
}

// SetSpec names a set and the piece IDs (sprite keys) it groups.
type SetSpec struct {
	Name   string   `mapstructure:"name" json:"name"`
	Pieces []string `mapstructure:"pieces" json:"pieces"`
}

// Catalog is the immutable table of pieces and sets. The definitions it hands
// out are shared with every round and must be treated as read-only.
type Catalog struct {
	pieces []*piece.Definition
	byID   map[string]*piece.Definition
	sets   []piece.Set
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, assets AssetResolver, sets []SetSpec) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Load(f, assets, sets)
}

// Load parses a CSV table with Type, Sprite and Tags columns, then resolves
// the set specs against it. Nothing is returned unless every row and set is valid.
func Load(r io.Reader, assets AssetResolver, sets []SetSpec) (*Catalog, error) {
	if assets == nil {
		assets = AnyAsset{}
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Err: ErrEmptyCatalog}
	}
	if err != nil {
		return nil, &LoadError{Row: 1, Column: "header", Err: err}
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var defs []*piece.Definition
	byID := make(map[string]*piece.Definition)
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &LoadError{Row: row, Err: err}
		}
		if isBlank(record) {
			continue
		}

		def, err := parseRow(record, cols, row, assets)
		if err != nil {
			return nil, err
		}
		if _, dup := byID[def.ID]; dup {
			return nil, &LoadError{Row: row, Column: "Sprite", Err: fmt.Errorf("%w: %q", ErrDuplicatePiece, def.ID)}
		}
		byID[def.ID] = def
		defs = append(defs, def)
	}

	if len(defs) == 0 {
		return nil, &LoadError{Err: ErrEmptyCatalog}
	}

	resolved, err := resolveSets(sets, byID)
	if err != nil {
		return nil, err
	}

	return &Catalog{pieces: defs, byID: byID, sets: resolved}, nil
}

// New builds a catalog from definitions already in memory (tests, tools).
// The definitions are copied, so later changes to defs do not reach the catalog.
func New(defs []*piece.Definition, sets []SetSpec) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, &LoadError{Err: ErrEmptyCatalog}
	}
	owned := make([]*piece.Definition, len(defs))
	byID := make(map[string]*piece.Definition, len(defs))
	for i, src := range defs {
		d := cloneDefinition(src)
		owned[i] = d
		if d.ID == "" {
			return nil, &LoadError{Row: i + 2, Column: "Sprite", Err: ErrMissingSprite}
		}
		if _, dup := byID[d.ID]; dup {
			return nil, &LoadError{Row: i + 2, Column: "Sprite", Err: fmt.Errorf("%w: %q", ErrDuplicatePiece, d.ID)}
		}
		byID[d.ID] = d
	}
	resolved, err := resolveSets(sets, byID)
	if err != nil {
		return nil, err
	}
	return &Catalog{pieces: owned, byID: byID, sets: resolved}, nil
}

func cloneDefinition(src *piece.Definition) *piece.Definition {
	d := *src
	d.Tags = append([]string(nil), src.Tags...)
	return &d
}

type columns struct {
	kind, sprite, tags int
}

func columnIndex(header []string) (columns, error) {
	cols := columns{kind: -1, sprite: -1, tags: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "type":
			cols.kind = i
		case "sprite":
			cols.sprite = i
		case "tags":
			cols.tags = i
		}
	}
	for name, idx := range map[string]int{"Type": cols.kind, "Sprite": cols.sprite, "Tags": cols.tags} {
		if idx < 0 {
			return cols, &LoadError{Row: 1, Column: name, Err: ErrMissingColumn}
		}
	}
	return cols, nil
}

func parseRow(record []string, cols columns, row int, assets AssetResolver) (*piece.Definition, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	code, err := strconv.Atoi(field(cols.kind))
	if err != nil {
		return nil, &LoadError{Row: row, Column: "Type", Err: fmt.Errorf("%w: %q", ErrBadKind, field(cols.kind))}
	}
	kind, err := piece.KindFromCode(code)
	if err != nil {
		return nil, &LoadError{Row: row, Column: "Type", Err: fmt.Errorf("%w: %v", ErrBadKind, err)}
	}

	sprite := field(cols.sprite)
	if sprite == "" {
		return nil, &LoadError{Row: row, Column: "Sprite", Err: ErrMissingSprite}
	}
	if !assets.Exists(sprite) {
		return nil, &LoadError{Row: row, Column: "Sprite", Err: fmt.Errorf("%w: no asset for %q", ErrMissingSprite, sprite)}
	}

	tags := splitTags(field(cols.tags))
	if len(tags) == 0 {
		return nil, &LoadError{Row: row, Column: "Tags", Err: ErrMissingTags}
	}

	return &piece.Definition{ID: sprite, Kind: kind, Tags: tags, Sprite: sprite}, nil
}

// splitTags splits an underscore-delimited tag list, dropping empties and repeats.
func splitTags(raw string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(raw, "_") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

func resolveSets(specs []SetSpec, byID map[string]*piece.Definition) ([]piece.Set, error) {
	sets := make([]piece.Set, 0, len(specs))
	for i, spec := range specs {
		set := piece.Set{Name: spec.Name}
		for _, id := range spec.Pieces {
			def, ok := byID[id]
			if !ok {
				return nil, &LoadError{Column: fmt.Sprintf("sets[%d] %q", i, spec.Name), Err: fmt.Errorf("%w: %q", ErrUnknownPiece, id)}
			}
			set.Pieces = append(set.Pieces, def)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Pieces returns every definition in table order.
func (c *Catalog) Pieces() []*piece.Definition {
	return append([]*piece.Definition(nil), c.pieces...)
}

// Piece looks a definition up by ID.
func (c *Catalog) Piece(id string) (*piece.Definition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// Len is the number of pieces.
func (c *Catalog) Len() int {
	return len(c.pieces)
}

// Sets returns the mandatory piece sets in configuration order.
func (c *Catalog) Sets() []piece.Set {
	out := make([]piece.Set, len(c.sets))
	for i := range c.sets {
		out[i], _ = c.Set(i)
	}
	return out
}

// Set returns set i.
func (c *Catalog) Set(i int) (piece.Set, bool) {
	if i < 0 || i >= len(c.sets) {
		return piece.Set{}, false
	}
	s := c.sets[i]
	s.Pieces = append([]*piece.Definition(nil), s.Pieces...)
	return s, true
}

// SetCount is the number of mandatory piece sets.
func (c *Catalog) SetCount() int {
	return len(c.sets)
}

// RandomPiece draws uniformly from every loaded piece.
func (c *Catalog) RandomPiece(r *rand.Rand) *piece.Definition {
	return c.pieces[r.Intn(len(c.pieces))]
}
