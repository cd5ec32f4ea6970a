package toy

import (
	"testing"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
)

func TestPiecesCompleteAndMissing(t *testing.T) {
	var p Pieces
	if p.Complete() {
		t.Fatalf("empty toy must not be complete")
	}
	if got := len(p.Missing()); got != piece.KindCount {
		t.Fatalf("expected %d missing anchors, got %d", piece.KindCount, got)
	}

	for _, k := range piece.Kinds {
		p[k] = &piece.Definition{ID: k.String(), Kind: k}
	}
	if !p.Complete() {
		t.Fatalf("expected toy to be complete")
	}
	if len(p.Missing()) != 0 {
		t.Fatalf("expected no missing anchors, got %v", p.Missing())
	}

	p[piece.KindLegs] = nil
	missing := p.Missing()
	if len(missing) != 1 || missing[0] != piece.KindLegs {
		t.Fatalf("expected only LEGS missing, got %v", missing)
	}
}

func TestPiecesGetAndIDs(t *testing.T) {
	var p Pieces
	p[piece.KindHead] = &piece.Definition{ID: "bear_head", Kind: piece.KindHead}

	if p.Get(piece.KindHead).ID != "bear_head" {
		t.Errorf("expected bear_head on the head anchor")
	}
	if p.Get(piece.Kind(9)) != nil {
		t.Errorf("expected nil for an invalid kind")
	}

	ids := p.IDs()
	if ids[piece.KindHead] != "bear_head" || ids[piece.KindBody] != "" {
		t.Errorf("unexpected ids %v", ids)
	}
}
