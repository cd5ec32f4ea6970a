package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
)

func TestLedgerCounters(t *testing.T) {
	l := NewLedger(10, false)
	l.Append(toy.Record{ID: "a"})
	l.Append(toy.Record{ID: "b"})
	l.AdvanceLevel()
	l.BumpDifficulty()

	assert.Equal(t, 2, l.ToyCount())
	assert.Equal(t, 1, l.Level())
	assert.Equal(t, 11, l.MaxPieces())

	records := l.Records()
	assert.Equal(t, "a", records[0].ID)
	records[0].ID = "changed"
	assert.Equal(t, "a", l.Records()[0].ID)

	l.EndSession()
	assert.Zero(t, l.ToyCount())
	assert.Zero(t, l.Level())
	assert.Equal(t, 2, l.Len(), "records wait for the review")

	l.Reset()
	assert.Zero(t, l.Len())
	assert.Equal(t, 11, l.MaxPieces())
}

func TestLedgerResetRestoresDifficultyWhenConfigured(t *testing.T) {
	l := NewLedger(10, true)
	l.BumpDifficulty()
	l.BumpDifficulty()
	l.Reset()
	assert.Equal(t, 10, l.MaxPieces())
}
