package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/autoplay"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/engine"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

const simStep = 50 * time.Millisecond

type simOptions struct {
	sessions  int
	seed      int64
	missRate  float64
	maxRounds int
	maxSteps  int
}

func newSimulateCommand() *cobra.Command {
	opts := simOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play sessions headless with a scripted player and print the reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.sessions, "sessions", 1, "Sessions to play")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "Random seed for the engine and the player")
	cmd.Flags().Float64Var(&opts.missRate, "miss-rate", 0.05, "Chance the player leaves an anchor empty")
	cmd.Flags().IntVar(&opts.maxRounds, "max-rounds", 20, "Rounds after which the player stops building")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 200000, "Step limit per session")
	return cmd
}

func runSimulate(out io.Writer, opts simOptions) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	w, err := wire(cfg, log, opts.seed)
	if err != nil {
		return err
	}
	defer w.Close()

	ticker := engine.NewTicker(w.engine, log, simStep, cfg.Tuning.CommandBuffer)
	player := autoplay.NewPlayer(opts.missRate, rand.New(rand.NewSource(opts.seed)))
	seen := 0

	for s := 1; s <= opts.sessions; s++ {
		sessionID := ticker.Snapshot().SessionID
		finished := false
		for i := 0; i < opts.maxSteps; i++ {
			for _, e := range w.eventLog.Since(seen) {
				player.Observe(e)
				seen++
			}

			state := ticker.Snapshot()
			switch state.Phase {
			case engine.PhaseWaiting:
				if !state.Ready {
					ticker.Submit(engine.ReadyCommand{Ready: true})
				}
			case engine.PhaseBuilding:
				if state.Round <= opts.maxRounds {
					for _, d := range player.NextDrops() {
						ticker.Submit(engine.DropCommand{PieceID: d.PieceID, Anchor: d.Anchor})
					}
				}
			case engine.PhaseGameOver:
				if state.Review.Finished {
					finished = true
				}
			}
			if finished {
				break
			}
			ticker.Step(simStep)
		}
		if !finished {
			return fmt.Errorf("session %d did not finish within %d steps", s, opts.maxSteps)
		}

		state := ticker.Snapshot()
		fmt.Fprintf(out, "Session %d (%s): %d rounds, %d toys, %d of %d kids satisfied\n",
			s, sessionID, state.Round, state.Records, state.Review.Satisfied, state.Review.Total)
		printSessionLog(out, w.eventLog, sessionID)
		if err := printHistory(out, w, sessionID); err != nil {
			return err
		}

		if s < opts.sessions {
			ticker.Submit(engine.ResetCommand{})
			ticker.Step(simStep)
		}
	}
	return nil
}

func printSessionLog(out io.Writer, el *events.EventLog, sessionID string) {
	for _, e := range el.ByType(events.EventTypeBuildSuccess) {
		if e.SessionID != sessionID {
			continue
		}
		if pl, ok := e.Payload.(events.BuildSuccessPayload); ok {
			fmt.Fprintf(out, "  round %d: %s wanted %s, not %s -> score %d\n",
				e.Round, pl.Record.Request.Name, pl.Record.Request.Likes, pl.Record.Request.Dislikes, pl.Score)
		}
	}
}

// printHistory shows the archived recap when storage is on.
func printHistory(out io.Writer, w *workshop, sessionID string) error {
	if w.store == nil {
		return nil
	}
	w.eventLog.Flush()
	h, err := w.store.RebuildSession(context.Background(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to rebuild session %s: %w", sessionID, err)
	}
	for _, r := range h.Recap {
		fmt.Fprintf(out, "  [%s] %s\n", r.Timestamp, r.Summary)
	}
	return nil
}
