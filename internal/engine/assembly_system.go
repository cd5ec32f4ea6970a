// Package engine - assembly_system.go
// Tracks the five anchors of the toy on the workbench.
//
// The tracker is mutated only by the engine goroutine: drops during BUILDING
// and the reset at the end of CLEANING. Every change is announced on the EventLog.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// ErrKindMismatch is returned when a piece is dropped on an anchor of another kind.
var ErrKindMismatch = errors.New("piece kind does not match anchor")

// IncompleteToyError is returned when a toy is snapshotted before every anchor is filled.
type IncompleteToyError struct {
	Missing []piece.Kind
}

func (e *IncompleteToyError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = k.String()
	}
	return "toy is incomplete, missing " + strings.Join(names, ", ")
}

// AssemblySystem holds the toy currently being built.
type AssemblySystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	stamp    *stamp
	anchors  map[piece.Kind]events.Position
	slots    toy.Pieces
}

// NewAssemblySystem creates an empty workbench. anchors gives the world
// position evicted pieces reappear at.
func NewAssemblySystem(eventLog *events.EventLog, log *logger.Logger, st *stamp, anchors map[piece.Kind]events.Position) *AssemblySystem {
	return &AssemblySystem{
		eventLog: eventLog,
		logger:   log,
		stamp:    st,
		anchors:  anchors,
	}
}

// HandleDrop attaches p to the anchor of kind anchor. A piece already on that
// anchor is detached first and pops back out at the anchor position.
func (as *AssemblySystem) HandleDrop(p *piece.Definition, anchor piece.Kind) error {
	if p == nil {
		return fmt.Errorf("%w: no piece", ErrKindMismatch)
	}
	if !anchor.Valid() || p.Kind != anchor {
		return fmt.Errorf("%w: %s on %s anchor", ErrKindMismatch, p.Kind, anchor)
	}

	if old := as.slots[anchor]; old != nil {
		as.slots[anchor] = nil
		as.emit(events.EventTypePieceDetach, events.PieceDetachPayload{
			PieceID:  old.ID,
			Anchor:   anchor,
			Position: as.anchors[anchor],
		})
		as.logger.Debug("Evicted " + old.ID + " from " + anchor.String())
	}

	as.slots[anchor] = p
	as.emit(events.EventTypePieceAttach, events.PiecePayload{PieceID: p.ID, Anchor: anchor})
	return nil
}

// IsCompleted reports whether all five anchors are occupied.
func (as *AssemblySystem) IsCompleted() bool {
	return as.slots.Complete()
}

// Slot returns the piece on one anchor, or nil.
func (as *AssemblySystem) Slot(k piece.Kind) *piece.Definition {
	return as.slots.Get(k)
}

// Pieces returns a copy of the five anchors.
func (as *AssemblySystem) Pieces() toy.Pieces {
	return as.slots
}

// Snapshot returns the finished toy. It fails with *IncompleteToyError while
// any anchor is empty.
func (as *AssemblySystem) Snapshot() (toy.Pieces, error) {
	if missing := as.slots.Missing(); len(missing) > 0 {
		return toy.Pieces{}, &IncompleteToyError{Missing: missing}
	}
	return as.slots, nil
}

// Reset empties the workbench, announcing a despawn for every occupied anchor.
func (as *AssemblySystem) Reset() {
	for _, k := range piece.Kinds {
		if p := as.slots[k]; p != nil {
			as.emit(events.EventTypePieceDespawn, events.PiecePayload{PieceID: p.ID, Anchor: k})
		}
	}
	as.slots = toy.Pieces{}
}

func (as *AssemblySystem) emit(t events.EventType, payload interface{}) {
	as.eventLog.Append(as.stamp.event(t, payload))
}
