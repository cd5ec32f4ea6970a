package engine

import (
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/platform/logger"
)

// BuildingSystem runs the whole-second build countdown.
type BuildingSystem struct {
	eventLog  *events.EventLog
	logger    *logger.Logger
	stamp     *stamp
	seconds   int
	remaining int
	timedOut  bool
}

func NewBuildingSystem(eventLog *events.EventLog, log *logger.Logger, st *stamp, seconds int) *BuildingSystem {
	return &BuildingSystem{eventLog: eventLog, logger: log, stamp: st, seconds: seconds}
}

// Start announces the countdown: one tick per whole second, then the time-out
// at N seconds. With N == 0 the time-out is due on the very next Advance.
func (bs *BuildingSystem) Start() *Timeline {
	bs.remaining = bs.seconds
	bs.timedOut = false

	bs.eventLog.Append(bs.stamp.event(events.EventTypeBuildStarted, events.BuildStartedPayload{Seconds: bs.seconds}))

	tl := NewTimeline("building")
	for k := 0; k < bs.seconds; k++ {
		left := bs.seconds - k
		tl.At(time.Duration(k)*time.Second, func() {
			bs.remaining = left
			bs.eventLog.Append(bs.stamp.event(events.EventTypeBuildCountdown, events.BuildCountdownPayload{Remaining: left}))
		})
	}
	tl.At(time.Duration(bs.seconds)*time.Second, func() {
		bs.remaining = 0
		bs.timedOut = true
	})
	return tl
}

func (bs *BuildingSystem) TimedOut() bool { return bs.timedOut }
func (bs *BuildingSystem) Remaining() int { return bs.remaining }
