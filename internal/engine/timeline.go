package engine

import (
	"sort"
	"time"
)

// Timeline is a scripted "wait, then do" sequence advanced by the tick loop.
// Steps run in offset order, each exactly once, on the Advance call that
// carries elapsed time past their offset. A Timeline never blocks.
type Timeline struct {
	name    string
	steps   []timelineStep
	elapsed time.Duration
	next    int
}

type timelineStep struct {
	at time.Duration
	fn func()
}

// NewTimeline creates an empty timeline.
func NewTimeline(name string) *Timeline {
	return &Timeline{name: name}
}

// At schedules fn at offset from the start of the timeline. Steps sharing an
// offset keep the order they were added in. Negative offsets count as zero.
func (t *Timeline) At(offset time.Duration, fn func()) *Timeline {
	if offset < 0 {
		offset = 0
	}
	i := sort.Search(len(t.steps), func(i int) bool { return t.steps[i].at > offset })
	if i < t.next {
		// Already behind the cursor: run on the next Advance.
		i = t.next
	}
	t.steps = append(t.steps, timelineStep{})
	copy(t.steps[i+1:], t.steps[i:])
	t.steps[i] = timelineStep{at: offset, fn: fn}
	return t
}

// Advance moves the timeline forward by dt and runs every step that became due.
func (t *Timeline) Advance(dt time.Duration) {
	if dt > 0 {
		t.elapsed += dt
	}
	for t.next < len(t.steps) && t.steps[t.next].at <= t.elapsed {
		step := t.steps[t.next]
		t.next++
		step.fn()
	}
}

// Done reports whether every scheduled step has run.
func (t *Timeline) Done() bool {
	return t.next >= len(t.steps)
}

// Name identifies the timeline in logs and snapshots.
func (t *Timeline) Name() string {
	return t.name
}

// Elapsed is the time advanced so far.
func (t *Timeline) Elapsed() time.Duration {
	return t.elapsed
}

// Length is the offset of the last step.
func (t *Timeline) Length() time.Duration {
	if len(t.steps) == 0 {
		return 0
	}
	return t.steps[len(t.steps)-1].at
}
