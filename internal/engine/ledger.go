package engine

import (
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
)

// Ledger accumulates the toys finished in a session and the difficulty counters.
type Ledger struct {
	records        []toy.Record
	level          int
	toyCount       int
	maxPieces      int
	baseMaxPieces  int
	resetsMaxOnNew bool
}

// NewLedger starts a ledger with the given spawn target. When resetDifficulty
// is set, Reset also restores maxPieces to that target.
func NewLedger(maxPieces int, resetDifficulty bool) *Ledger {
	return &Ledger{
		maxPieces:      maxPieces,
		baseMaxPieces:  maxPieces,
		resetsMaxOnNew: resetDifficulty,
	}
}

// Append keeps a finished toy and counts it.
func (l *Ledger) Append(rec toy.Record) {
	l.records = append(l.records, rec)
	l.toyCount++
}

// Records returns the session's toys in creation order.
func (l *Ledger) Records() []toy.Record {
	return append([]toy.Record(nil), l.records...)
}

func (l *Ledger) Len() int       { return len(l.records) }
func (l *Ledger) Level() int     { return l.level }
func (l *Ledger) ToyCount() int  { return l.toyCount }
func (l *Ledger) MaxPieces() int { return l.maxPieces }

// AdvanceLevel moves to the next scripted level.
func (l *Ledger) AdvanceLevel() {
	l.level++
}

// BumpDifficulty raises the spawn target by one piece.
func (l *Ledger) BumpDifficulty() {
	l.maxPieces++
}

// EndSession zeroes level and toy count when the player loses. The records
// stay until the review has shown them.
func (l *Ledger) EndSession() {
	l.level = 0
	l.toyCount = 0
}

// Reset prepares the ledger for a new session.
func (l *Ledger) Reset() {
	l.records = nil
	l.level = 0
	l.toyCount = 0
	if l.resetsMaxOnNew {
		l.maxPieces = l.baseMaxPieces
	}
}
