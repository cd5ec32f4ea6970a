// Package engine - ticker.go
// The heartbeat of the workshop.
//
// ARCHITECTURAL RULE: only the Ticker goroutine mutates the Engine. Players
// reach it through queued Commands; everything it does is announced on the EventLog.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// TickRate defines how often the round loop advances in real time.
const TickRate = 50 * time.Millisecond

// DefaultCommandBuffer is the command queue size used when none is configured.
const DefaultCommandBuffer = 256

// ErrQueueFull is returned by Submit when the command queue is saturated.
var ErrQueueFull = errors.New("engine command queue is full")

// Command is a player action applied on the engine goroutine.
type Command interface {
	Apply(e *Engine) error
	Name() string
}

// ReadyCommand raises or clears the ready signal.
type ReadyCommand struct {
	Ready bool
}

func (c ReadyCommand) Apply(e *Engine) error {
	e.SetReady(c.Ready)
	return nil
}

func (c ReadyCommand) Name() string { return "READY" }

// DropCommand drops a piece onto an anchor.
type DropCommand struct {
	PieceID string
	Anchor  piece.Kind
}

func (c DropCommand) Apply(e *Engine) error {
	return e.HandlePieceDrop(c.PieceID, c.Anchor)
}

func (c DropCommand) Name() string { return "DROP" }

// ResetCommand is "play again".
type ResetCommand struct{}

func (ResetCommand) Apply(e *Engine) error { return e.RequestReset() }
func (ResetCommand) Name() string          { return "PLAY_AGAIN" }

type queuedCommand struct {
	cmd   Command
	reply chan error
}

// Ticker owns the Engine and drives it from one goroutine.
type Ticker struct {
	engine   *Engine
	logger   *logger.Logger
	rate     time.Duration
	commands chan queuedCommand
	stopChan chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	snapshot SessionState
	ticks    int64
}

// NewTicker creates a new round ticker. A zero rate means TickRate and a zero
// buffer means DefaultCommandBuffer.
func NewTicker(e *Engine, log *logger.Logger, rate time.Duration, buffer int) *Ticker {
	if rate <= 0 {
		rate = TickRate
	}
	if buffer <= 0 {
		buffer = DefaultCommandBuffer
	}
	return &Ticker{
		engine:   e,
		logger:   log,
		rate:     rate,
		commands: make(chan queuedCommand, buffer),
		stopChan: make(chan struct{}),
		snapshot: e.State(),
	}
}

// Submit queues a command without waiting for its result.
func (t *Ticker) Submit(cmd Command) error {
	select {
	case t.commands <- queuedCommand{cmd: cmd}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitWait queues a command and waits until the engine has applied it.
func (t *Ticker) SubmitWait(ctx context.Context, cmd Command) error {
	reply := make(chan error, 1)
	select {
	case t.commands <- queuedCommand{cmd: cmd, reply: reply}:
	default:
		return ErrQueueFull
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins the round loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info(fmt.Sprintf("Round ticker started at %s per tick", t.rate))

	ticker := time.NewTicker(t.rate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Round ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Round ticker stopped manually.")
			return
		case now := <-ticker.C:
			t.Step(now.Sub(last))
			last = now
		}
	}
}

// Stop gracefully stops the ticker.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Step drains queued commands, advances the engine by dt and publishes a
// fresh snapshot. Start calls it on every tick; tests and simulations call it directly.
func (t *Ticker) Step(dt time.Duration) {
	began := time.Now()
	t.drain()
	t.engine.Tick(dt)

	state := t.engine.State()
	t.mu.Lock()
	t.snapshot = state
	t.ticks++
	t.mu.Unlock()

	t.engine.metrics.ObserveTick(time.Since(began))
}

func (t *Ticker) drain() {
	for {
		select {
		case q := <-t.commands:
			err := q.cmd.Apply(t.engine)
			t.engine.metrics.ObserveCommand(q.cmd.Name(), err)
			if err != nil {
				t.logger.Warn("Rejected " + q.cmd.Name() + ": " + err.Error())
			}
			if q.reply != nil {
				q.reply <- err
			}
		default:
			return
		}
	}
}

// Snapshot returns the state published by the last step.
func (t *Ticker) Snapshot() SessionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// Ticks is the number of steps taken so far.
func (t *Ticker) Ticks() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ticks
}
