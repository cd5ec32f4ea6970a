package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

func newAssembly() (*AssemblySystem, *events.EventLog) {
	el := events.NewEventLog(nil)
	st := &stamp{sessionID: "S1", round: 1, now: time.Now}
	return NewAssemblySystem(el, logger.Discard(), st, DefaultSettings().Anchors), el
}

func TestSnapshotIncompleteToy(t *testing.T) {
	as, _ := newAssembly()
	head := &piece.Definition{ID: "h", Kind: piece.KindHead}
	if err := as.HandleDrop(head, piece.KindHead); err != nil {
		t.Fatalf("drop failed: %v", err)
	}

	_, err := as.Snapshot()
	var incomplete *IncompleteToyError
	if !errors.As(err, &incomplete) {
		t.Fatalf("Expected IncompleteToyError, got %v", err)
	}
	if len(incomplete.Missing) != 4 {
		t.Errorf("Expected 4 missing anchors, got %v", incomplete.Missing)
	}
	if as.IsCompleted() {
		t.Errorf("Toy with one piece reported complete")
	}
}

func TestSnapshotCompleteToy(t *testing.T) {
	as, el := newAssembly()
	for _, k := range piece.Kinds {
		if err := as.HandleDrop(&piece.Definition{ID: k.String(), Kind: k}, k); err != nil {
			t.Fatalf("drop %s failed: %v", k, err)
		}
	}

	pieces, err := as.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if pieces.Get(piece.KindLegs).ID != "LEGS" {
		t.Errorf("Expected LEGS on legs anchor, got %s", pieces.Get(piece.KindLegs).ID)
	}
	if n := len(el.ByType(events.EventTypePieceAttach)); n != 5 {
		t.Errorf("Expected 5 attach events, got %d", n)
	}
}

func TestResetDespawnsOccupiedAnchorsOnly(t *testing.T) {
	as, el := newAssembly()
	_ = as.HandleDrop(&piece.Definition{ID: "b", Kind: piece.KindBody}, piece.KindBody)
	_ = as.HandleDrop(&piece.Definition{ID: "l", Kind: piece.KindLegs}, piece.KindLegs)

	as.Reset()

	despawns := el.ByType(events.EventTypePieceDespawn)
	if len(despawns) != 2 {
		t.Fatalf("Expected 2 despawn events, got %d", len(despawns))
	}
	first := despawns[0].Payload.(events.PiecePayload)
	if first.PieceID != "b" || first.Anchor != piece.KindBody {
		t.Errorf("Unexpected first despawn %+v", first)
	}
	for _, k := range piece.Kinds {
		if as.Slot(k) != nil {
			t.Errorf("Anchor %s not emptied", k)
		}
	}

	as.Reset()
	if n := len(el.ByType(events.EventTypePieceDespawn)); n != 2 {
		t.Errorf("Reset of an empty toy emitted despawns: %d", n)
	}
}

func TestDropOnWrongAnchorLeavesToyUntouched(t *testing.T) {
	as, el := newAssembly()
	err := as.HandleDrop(&piece.Definition{ID: "arm", Kind: piece.KindLeftArm}, piece.KindRightArm)
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("Expected ErrKindMismatch, got %v", err)
	}
	if as.Slot(piece.KindRightArm) != nil || el.Len() != 0 {
		t.Errorf("Rejected drop changed the toy")
	}
	if err := as.HandleDrop(nil, piece.KindBody); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Expected nil piece to be rejected, got %v", err)
	}
}
