package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

func TestTickerAppliesCommandsBeforeTick(t *testing.T) {
	e, _ := newTestEngine(t, fastSettings(), []request.Level{redLevel()})
	tk := NewTicker(e, logger.Discard(), 0, 4)

	require.NoError(t, tk.Submit(ReadyCommand{Ready: true}))
	assert.Equal(t, PhaseWaiting, tk.Snapshot().Phase, "nothing runs until the next step")

	tk.Step(step)
	assert.Equal(t, PhaseGeneration, tk.Snapshot().Phase)
	assert.EqualValues(t, 1, tk.Ticks())
}

func TestTickerQueueFull(t *testing.T) {
	e, _ := newTestEngine(t, fastSettings(), nil)
	tk := NewTicker(e, logger.Discard(), 0, 1)

	require.NoError(t, tk.Submit(ReadyCommand{Ready: true}))
	assert.ErrorIs(t, tk.Submit(ReadyCommand{Ready: true}), ErrQueueFull)

	tk.Step(step)
	assert.NoError(t, tk.Submit(ReadyCommand{Ready: false}))
}

func TestTickerSubmitWaitReturnsEngineError(t *testing.T) {
	e, _ := newTestEngine(t, fastSettings(), nil)
	tk := NewTicker(e, logger.Discard(), 5*time.Millisecond, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tk.Start(ctx)
	defer tk.Stop()

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()

	err := tk.SubmitWait(waitCtx, DropCommand{PieceID: "body_red", Anchor: piece.KindBody})
	assert.ErrorIs(t, err, ErrNotBuilding)

	err = tk.SubmitWait(waitCtx, ResetCommand{})
	assert.ErrorIs(t, err, ErrNotGameOver)

	assert.NoError(t, tk.SubmitWait(waitCtx, ReadyCommand{Ready: true}))
}

func TestTickerSubmitWaitHonoursContext(t *testing.T) {
	e, _ := newTestEngine(t, fastSettings(), nil)
	tk := NewTicker(e, logger.Discard(), 0, 8)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tk.SubmitWait(ctx, ReadyCommand{Ready: true}), context.DeadlineExceeded)
}
