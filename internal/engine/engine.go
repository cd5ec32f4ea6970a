package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/catalog"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/piece"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/request"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/rules"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

var (
	ErrNotBuilding     = errors.New("pieces can only be dropped while building")
	ErrUnknownPiece    = errors.New("piece is not in play")
	ErrNotGameOver     = errors.New("play again is only available after game over")
	ErrInvalidSettings = errors.New("invalid engine settings")
	ErrMissingContent  = errors.New("engine needs a catalog and a request generator")
)

// Settings are the externally supplied round constants.
type Settings struct {
	PiecesPerRound           int
	SpawnDuration            time.Duration
	BuildingSeconds          int
	CleaningDuration         time.Duration
	ReviewPieceDelay         time.Duration
	ReviewPause              time.Duration
	Spawners                 int
	AutoReady                bool
	ResetDifficultyOnRestart bool
	Anchors                  map[piece.Kind]events.Position
}

// DefaultSettings mirrors the tuning of the jam build.
func DefaultSettings() Settings {
	return Settings{
		PiecesPerRound:   10,
		SpawnDuration:    5 * time.Second,
		BuildingSeconds:  10,
		CleaningDuration: 3 * time.Second,
		ReviewPieceDelay: 300 * time.Millisecond,
		ReviewPause:      2 * time.Second,
		Spawners:         2,
		Anchors: map[piece.Kind]events.Position{
			piece.KindBody:     {X: 0, Y: 0},
			piece.KindHead:     {X: 0, Y: 1.5},
			piece.KindRightArm: {X: 1.2, Y: 0.3},
			piece.KindLeftArm:  {X: -1.2, Y: 0.3},
			piece.KindLegs:     {X: 0, Y: -1.4},
		},
	}
}

func (s Settings) validate() error {
	switch {
	case s.PiecesPerRound < 0:
		return fmt.Errorf("%w: negative pieces per round", ErrInvalidSettings)
	case s.BuildingSeconds < 0:
		return fmt.Errorf("%w: negative building seconds", ErrInvalidSettings)
	case s.SpawnDuration < 0 || s.CleaningDuration < 0 || s.ReviewPieceDelay < 0 || s.ReviewPause < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidSettings)
	}
	return nil
}

// Content is the loaded game data the engine draws rounds from.
type Content struct {
	Catalog  *catalog.Catalog
	Requests *request.Generator
}

// RecordArchive durably keeps finished toys. Failures are logged, never fatal.
type RecordArchive interface {
	SaveRecord(sessionID string, rec toy.Record, score int) error
}

// Recorder receives engine measurements.
type Recorder interface {
	ObservePhase(from, to string)
	ObserveTick(latency time.Duration)
	ObserveToyBuilt(score int)
	ObserveGameOver(toys int)
	ObserveReview(satisfied, total int)
	ObserveCommand(name string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObservePhase(string, string) {}
func (nopRecorder) ObserveTick(time.Duration) {}
func (nopRecorder) ObserveToyBuilt(int) {}
func (nopRecorder) ObserveGameOver(int) {}
func (nopRecorder) ObserveReview(int, int) {}
func (nopRecorder) ObserveCommand(string, error) {}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand injects the random source used for requests and piece lists.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithArchive(a RecordArchive) Option {
	return func(e *Engine) { e.archive = a }
}

func WithMetrics(m Recorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock replaces time.Now for record and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.stamp.now = now }
}

// stamp carries the session and round every emitted event is tagged with.
type stamp struct {
	sessionID string
	round     int
	now       func() time.Time
}

func (s *stamp) event(t events.EventType, payload interface{}) events.GameEvent {
	return events.GameEvent{
		ID:        events.NewID(),
		SessionID: s.sessionID,
		Timestamp: s.now(),
		Type:      t,
		Round:     s.round,
		Payload:   payload,
	}
}

// Engine is the round state machine. It owns the session and every subsystem;
// it is driven by Tick and is not safe for concurrent use (see Ticker).
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	settings Settings
	content  Content
	rng      *rand.Rand
	archive  RecordArchive
	metrics  Recorder
	stamp    *stamp

	// Sub-systems
	assembly   *AssemblySystem
	generation *GenerationSystem
	building   *BuildingSystem
	review     *ReviewSystem
	ledger     *Ledger

	// State
	phase          Phase
	timeline       *Timeline
	cleaningDone   bool
	ready          bool
	resetRequested bool
	request        *request.Request
	scripted       bool
	roundLevel     int
}

// NewEngine wires the subsystems around one session.
func NewEngine(eventLog *events.EventLog, log *logger.Logger, settings Settings, content Content, opts ...Option) (*Engine, error) {
	if content.Catalog == nil || content.Requests == nil {
		return nil, ErrMissingContent
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if content.Requests.SetCount() > content.Catalog.SetCount() {
		return nil, fmt.Errorf("%w: requests point at %d sets, catalog has %d",
			ErrInvalidSettings, content.Requests.SetCount(), content.Catalog.SetCount())
	}

	e := &Engine{
		eventLog: eventLog,
		logger:   log,
		settings: settings,
		content:  content,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		metrics:  nopRecorder{},
		stamp:    &stamp{sessionID: events.NewID(), now: time.Now},
		ledger:   NewLedger(settings.PiecesPerRound, settings.ResetDifficultyOnRestart),
		phase:    PhaseWaiting,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.assembly = NewAssemblySystem(eventLog, log, e.stamp, settings.Anchors)
	e.generation = NewGenerationSystem(eventLog, log, e.stamp, settings.SpawnDuration, settings.Spawners)
	e.building = NewBuildingSystem(eventLog, log, e.stamp, settings.BuildingSeconds)
	e.review = NewReviewSystem(eventLog, log, e.stamp, e.metrics, settings.ReviewPieceDelay, settings.ReviewPause)

	return e, nil
}

// SetReady raises or clears the player's ready signal. It is consumed by the
// next WAITING poll.
func (e *Engine) SetReady(ready bool) {
	e.ready = ready
}

// HandlePieceDrop applies a player's drop of pieceID onto the anchor of kind anchor.
func (e *Engine) HandlePieceDrop(pieceID string, anchor piece.Kind) error {
	if e.phase != PhaseBuilding {
		return fmt.Errorf("%w: phase is %s", ErrNotBuilding, e.phase)
	}
	p, ok := e.generation.Spawned(pieceID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPiece, pieceID)
	}
	return e.assembly.HandleDrop(p, anchor)
}

// RequestReset asks for a new session ("play again"). The reset happens once
// the review has finished; a request made mid-review is remembered.
func (e *Engine) RequestReset() error {
	if e.phase != PhaseGameOver {
		return fmt.Errorf("%w: phase is %s", ErrNotGameOver, e.phase)
	}
	e.resetRequested = true
	return nil
}

// Tick advances the live timeline by dt, then polls the phase guard once.
func (e *Engine) Tick(dt time.Duration) {
	if e.timeline != nil {
		e.timeline.Advance(dt)
	}
	e.poll()
}

func (e *Engine) poll() {
	switch e.phase {
	case PhaseWaiting:
		if e.ready || e.settings.AutoReady {
			e.ready = false
			e.startRound()
		}
	case PhaseGeneration:
		if e.generation.Completed() {
			e.startBuilding()
		}
	case PhaseBuilding:
		if e.building.TimedOut() {
			e.finishBuilding()
		}
	case PhaseCleaning:
		if e.cleaningDone {
			e.finishCleaning()
		}
	case PhaseGameOver:
		if e.resetRequested && e.review.Finished() {
			e.resetSession()
		}
	}
}

// ====== WAITING ========

func (e *Engine) startRound() {
	e.stamp.round++
	e.roundLevel = e.ledger.Level()

	var list []*piece.Definition
	if lvl, ok := e.content.Requests.ForLevel(e.roundLevel); ok {
		sets := make([]piece.Set, 0, len(lvl.IncludedSets))
		for _, idx := range lvl.IncludedSets {
			if s, ok := e.content.Catalog.Set(idx); ok {
				sets = append(sets, s)
			}
		}
		target := lvl.MaxPieces
		if target == 0 {
			target = e.ledger.MaxPieces()
		}
		list = rules.BuildFromSets(sets, target, e.content.Catalog.RandomPiece, e.rng)
		req := lvl.Request
		e.request = &req
		e.scripted = true
		e.ledger.AdvanceLevel()
	} else {
		req := e.content.Requests.Random()
		set, _ := e.content.Catalog.Set(req.MandatorySet)
		list = rules.BuildFromMandatorySet(set, e.ledger.MaxPieces(), e.content.Catalog.RandomPiece, e.rng)
		e.request = &req
		e.scripted = false
	}

	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	e.emit(events.EventTypeRoundStarted, events.RoundStartedPayload{
		Request:   *e.request,
		PieceIDs:  ids,
		Scripted:  e.scripted,
		Level:     e.roundLevel,
		MaxPieces: e.ledger.MaxPieces(),
	})
	e.logger.Info(fmt.Sprintf("Round %d: %s likes %s, dislikes %s (%d pieces)",
		e.stamp.round, e.request.Name, e.request.Likes, e.request.Dislikes, len(list)))

	e.replaceTimeline(e.generation.Start(list))
	e.setPhase(PhaseGeneration)
}

// ====== GENERATION ========

func (e *Engine) startBuilding() {
	e.replaceTimeline(e.building.Start())
	e.setPhase(PhaseBuilding)
}

// ====== BUILDING ========

func (e *Engine) finishBuilding() {
	completed := e.assembly.IsCompleted()
	e.emit(events.EventTypeBuildFinished, events.BuildFinishedPayload{
		Completed: completed,
		Missing:   e.assembly.Pieces().Missing(),
	})

	if !completed {
		e.enterGameOver()
		return
	}

	pieces, err := e.assembly.Snapshot()
	if err != nil {
		// Unreachable after IsCompleted; treat it like a failed build.
		e.logger.Error("Snapshot of completed toy failed: " + err.Error())
		e.enterGameOver()
		return
	}

	rec := toy.Record{
		ID:          events.NewID(),
		Level:       e.roundLevel,
		Pieces:      pieces,
		Request:     *e.request,
		CompletedAt: e.stamp.now(),
	}
	e.ledger.Append(rec)
	// The last scripted round already advanced the level past the script.
	if e.ledger.Level() >= e.content.Requests.LevelCount() {
		e.ledger.BumpDifficulty()
	}

	score := rules.Score(rec.Request, rec.Pieces)
	if e.archive != nil {
		if err := e.archive.SaveRecord(e.stamp.sessionID, rec, score); err != nil {
			e.logger.Warn("Failed to archive toy " + rec.ID + ": " + err.Error())
		}
	}
	e.metrics.ObserveToyBuilt(score)
	e.emit(events.EventTypeBuildSuccess, events.BuildSuccessPayload{
		Record:   rec,
		Score:    score,
		ToyCount: e.ledger.ToyCount(),
	})

	e.emit(events.EventTypeCleaningStarted, nil)
	e.cleaningDone = false
	e.replaceTimeline(NewTimeline("cleaning").At(e.settings.CleaningDuration, func() {
		e.cleaningDone = true
	}))
	e.setPhase(PhaseCleaning)
}

// ====== CLEANING ========

func (e *Engine) finishCleaning() {
	e.assembly.Reset()
	e.emit(events.EventTypeCleaningFinished, nil)
	e.cleaningDone = false
	e.timeline = nil
	e.setPhase(PhaseWaiting)
}

// ====== GAME OVER ========

func (e *Engine) enterGameOver() {
	toys := e.ledger.ToyCount()
	e.emit(events.EventTypeGameOver, events.GameOverPayload{ToysBuilt: toys})
	e.metrics.ObserveGameOver(toys)
	e.assembly.Reset()
	e.ledger.EndSession()
	e.resetRequested = false
	e.replaceTimeline(e.review.Start(e.ledger.Records()))
	e.setPhase(PhaseGameOver)
}

func (e *Engine) resetSession() {
	previous := e.stamp.sessionID

	e.ledger.Reset()
	e.review.Clear()
	e.generation.Clear()
	e.assembly.Reset()
	e.timeline = nil
	e.ready = false
	e.resetRequested = false
	e.request = nil
	e.scripted = false

	e.stamp.sessionID = events.NewID()
	e.stamp.round = 0
	e.emit(events.EventTypeSessionReset, events.SessionResetPayload{PreviousSessionID: previous})
	e.logger.Info("Session " + previous + " closed, new session " + e.stamp.sessionID)
	e.setPhase(PhaseWaiting)
}

// =======================

func (e *Engine) replaceTimeline(tl *Timeline) {
	if e.timeline != nil && !e.timeline.Done() {
		e.logger.Error("Timeline " + e.timeline.Name() + " replaced before it finished")
	}
	e.timeline = tl
}

func (e *Engine) setPhase(to Phase) {
	from := e.phase
	e.phase = to
	e.metrics.ObservePhase(from.String(), to.String())
	e.logger.Info("Phase " + from.String() + " -> " + to.String())
}

func (e *Engine) emit(t events.EventType, payload interface{}) {
	ev := e.eventLog.Append(e.stamp.event(t, payload))
	e.logger.Event(string(ev.Type), ev.SessionID, fmt.Sprintf("round %d", ev.Round))
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// SessionID identifies the running session.
func (e *Engine) SessionID() string {
	return e.stamp.sessionID
}

// IsCompleted reports whether the toy on the workbench has all five pieces.
func (e *Engine) IsCompleted() bool {
	return e.assembly.IsCompleted()
}

// Records returns the toys finished this session.
func (e *Engine) Records() []toy.Record {
	return e.ledger.Records()
}

// GetEventLog exposes the event log for broadcasters.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

// State returns a snapshot of the session.
func (e *Engine) State() SessionState {
	st := SessionState{
		Phase:          e.phase,
		SessionID:      e.stamp.sessionID,
		Round:          e.stamp.round,
		Level:          e.ledger.Level(),
		MaxPieces:      e.ledger.MaxPieces(),
		ToyCount:       e.ledger.ToyCount(),
		Scripted:       e.scripted,
		PendingPieces:  e.generation.Pending(),
		Slots:          e.assembly.Pieces().IDs(),
		Records:        e.ledger.Len(),
		Ready:          e.ready,
		ResetRequested: e.resetRequested,
		Review:         e.review.Progress(),
	}
	if e.request != nil {
		req := *e.request
		st.Request = &req
	}
	if e.phase == PhaseBuilding {
		st.BuildRemaining = e.building.Remaining()
	}
	if e.timeline != nil && !e.timeline.Done() {
		st.Timeline = e.timeline.Name()
	}
	return st
}
