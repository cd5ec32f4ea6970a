// Package engine - generation_system.go
// Spreads a round's piece list over the spawn duration, round-robin across spawners.
package engine

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// GenerationSystem owns the pieces of the current round.
type GenerationSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	stamp    *stamp
	duration time.Duration
	spawners int

	list     []*piece.Definition
	spawned  map[string]*piece.Definition
	next     int
	complete bool
}

// NewGenerationSystem creates an idle generator.
func NewGenerationSystem(eventLog *events.EventLog, log *logger.Logger, st *stamp, duration time.Duration, spawners int) *GenerationSystem {
	if spawners < 1 {
		spawners = 1
	}
	return &GenerationSystem{
		eventLog: eventLog,
		logger:   log,
		stamp:    st,
		duration: duration,
		spawners: spawners,
		spawned:  make(map[string]*piece.Definition),
	}
}

// Start lays out the spawn timeline for list. Piece i spawns at
// i*duration/len(list) and the timeline completes at duration. An empty list
// completes immediately instead of dividing by zero.
func (gs *GenerationSystem) Start(list []*piece.Definition) *Timeline {
	gs.list = list
	gs.spawned = make(map[string]*piece.Definition, len(list))
	gs.next = 0
	gs.complete = false

	gs.emit(events.EventTypeGenerationStarted, events.GenerationStartedPayload{
		Total:    len(list),
		Duration: gs.duration.Seconds(),
	})

	tl := NewTimeline("generation")
	if len(list) == 0 {
		gs.emit(events.EventTypeGenerationEmpty, nil)
		gs.logger.Warn("Generated piece list is empty, skipping spawn delay")
		tl.At(0, func() { gs.complete = true })
		return tl
	}

	n := int64(len(list))
	for i := range list {
		i := i
		at := time.Duration(int64(gs.duration) * int64(i) / n)
		tl.At(at, func() { gs.spawn(i) })
	}
	tl.At(gs.duration, func() {
		gs.complete = true
		gs.logger.Info(fmt.Sprintf("Generation finished, %d pieces spawned", len(gs.list)))
	})
	return tl
}

func (gs *GenerationSystem) spawn(i int) {
	p := gs.list[i]
	gs.spawned[p.ID] = p
	gs.next = i + 1
	gs.emit(events.EventTypePieceSpawn, events.PieceSpawnPayload{
		Index:   i,
		PieceID: p.ID,
		Kind:    p.Kind,
		Tags:    p.Tags,
		Sprite:  p.Sprite,
		Spawner: i % gs.spawners,
	})
}

// Completed reports whether the last spawn timeline ran to the end.
func (gs *GenerationSystem) Completed() bool {
	return gs.complete
}

// Spawned looks up a piece that is in play this round.
func (gs *GenerationSystem) Spawned(id string) (*piece.Definition, bool) {
	p, ok := gs.spawned[id]
	return p, ok
}

// Pending returns the IDs of pieces not spawned yet.
func (gs *GenerationSystem) Pending() []string {
	ids := make([]string, 0, len(gs.list)-gs.next)
	for _, p := range gs.list[gs.next:] {
		ids = append(ids, p.ID)
	}
	return ids
}

// Clear forgets the round's pieces.
func (gs *GenerationSystem) Clear() {
	gs.list = nil
	gs.spawned = make(map[string]*piece.Definition)
	gs.next = 0
	gs.complete = false
}

func (gs *GenerationSystem) emit(t events.EventType, payload interface{}) {
	gs.eventLog.Append(gs.stamp.event(t, payload))
}
