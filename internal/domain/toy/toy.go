// Package toy defines the assembled toy and the record kept once it is finished.
// This package is PURE and must NOT import any infrastructure packages.
package toy

import (
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
)

// Pieces holds one optional piece per anchor, indexed by piece.Kind.
type Pieces [piece.KindCount]*piece.Definition

// Get returns the piece on the anchor of kind k, or nil when empty.
func (p Pieces) Get(k piece.Kind) *piece.Definition {
	if !k.Valid() {
		return nil
	}
	return p[k]
}

// Complete reports whether every anchor is occupied.
func (p Pieces) Complete() bool {
	for _, def := range p {
		if def == nil {
			return false
		}
	}
	return true
}

// Missing lists the kinds whose anchor is still empty.
func (p Pieces) Missing() []piece.Kind {
	var missing []piece.Kind
	for _, k := range piece.Kinds {
		if p[k] == nil {
			missing = append(missing, k)
		}
	}
	return missing
}

// IDs returns the piece IDs in anchor order; empty anchors give "".
func (p Pieces) IDs() [piece.KindCount]string {
	var ids [piece.KindCount]string
	for i, def := range p {
		if def != nil {
			ids[i] = def.ID
		}
	}
	return ids
}

// Record is a finished toy paired with the request it was built against.
// Immutable once created.
type Record struct {
	ID          string          `json:"id"`
	Level       int             `json:"level"`
	Pieces      Pieces          `json:"pieces"`
	Request     request.Request `json:"request"`
	CompletedAt time.Time       `json:"completed_at"`
}
