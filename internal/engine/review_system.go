// Package engine - review_system.go
// End-of-session review: replays every toy of the ledger, one after another,
// and scores it against its request.
package engine

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/rules"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// ReviewSystem builds and tracks the review timeline shown on GAME_OVER.
type ReviewSystem struct {
	eventLog   *events.EventLog
	logger     *logger.Logger
	stamp      *stamp
	metrics    Recorder
	pieceDelay time.Duration
	pause      time.Duration

	total     int
	shown     int
	satisfied int
	running   bool
	finished  bool
}

// NewReviewSystem creates an idle review.
func NewReviewSystem(eventLog *events.EventLog, log *logger.Logger, st *stamp, metrics Recorder, pieceDelay, pause time.Duration) *ReviewSystem {
	return &ReviewSystem{
		eventLog:   eventLog,
		logger:     log,
		stamp:      st,
		metrics:    metrics,
		pieceDelay: pieceDelay,
		pause:      pause,
	}
}

// Start lays out the review of records on a new timeline. Offsets depend only
// on the configured delays, so the replay is the same however long the rounds took.
func (rs *ReviewSystem) Start(records []toy.Record) *Timeline {
	rs.total = len(records)
	rs.shown = 0
	rs.satisfied = 0
	rs.running = true
	rs.finished = false

	tl := NewTimeline("review")
	tl.At(0, func() {
		rs.emit(events.EventTypeReviewStarted, events.ReviewStartedPayload{Total: rs.total})
	})

	var at time.Duration
	for i, rec := range records {
		i, rec := i, rec
		tl.At(at, func() {
			rs.shown = i + 1
			rs.emit(events.EventTypeReviewToyShown, events.ReviewToyPayload{Index: i, Request: rec.Request})
		})
		for _, k := range piece.Kinds {
			k := k
			at += rs.pieceDelay
			tl.At(at, func() {
				p := rec.Pieces.Get(k)
				id := ""
				if p != nil {
					id = p.ID
				}
				rs.emit(events.EventTypeReviewPieceRevealed, events.ReviewPiecePayload{Index: i, PieceID: id, Anchor: k})
			})
		}
		tl.At(at, func() {
			score := rules.Score(rec.Request, rec.Pieces)
			ok := rules.IsSatisfied(score)
			if ok {
				rs.satisfied++
			}
			rs.emit(events.EventTypeReviewToyScored, events.ReviewScorePayload{Index: i, Score: score, Satisfied: ok})
			rs.logger.Info(fmt.Sprintf("Review %d/%d: %s scored %d", i+1, rs.total, rec.Request.Name, score))
		})
		at += rs.pause
		tl.At(at, func() {
			rs.emit(events.EventTypeReviewToyCleared, events.ReviewToyPayload{Index: i, Request: rec.Request})
		})
	}

	tl.At(at, func() {
		rs.running = false
		rs.finished = true
		rs.emit(events.EventTypeReviewFinished, events.ReviewFinishedPayload{Satisfied: rs.satisfied, Total: rs.total})
		rs.metrics.ObserveReview(rs.satisfied, rs.total)
		rs.logger.Info(fmt.Sprintf("Review finished: %d of %d kids satisfied", rs.satisfied, rs.total))
	})
	return tl
}

// Finished reports whether the last started review has run to the end.
func (rs *ReviewSystem) Finished() bool {
	return rs.finished
}

// Progress returns the review counters for snapshots.
func (rs *ReviewSystem) Progress() ReviewProgress {
	return ReviewProgress{
		Running:   rs.running,
		Finished:  rs.finished,
		Shown:     rs.shown,
		Total:     rs.total,
		Satisfied: rs.satisfied,
	}
}

// Clear forgets the last review.
func (rs *ReviewSystem) Clear() {
	rs.total, rs.shown, rs.satisfied = 0, 0, 0
	rs.running, rs.finished = false, false
}

func (rs *ReviewSystem) emit(t events.EventType, payload interface{}) {
	rs.eventLog.Append(rs.stamp.event(t, payload))
}
