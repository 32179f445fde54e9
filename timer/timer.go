package timer

import (
	"math"
	"time"
)

// Timer is a countdown to a single absolute tick.  The zero value is not
// usable; create timers with [New].
//
// Millisecond to tick conversion rounds down, so a countdown may expire
// up to one tick period earlier than requested.
type Timer struct {
	clock Clock
	due   Tick
}

// New returns a timer on clock whose deadline is already in the past:
// an unarmed timer reports itself expired.
func New(clock Clock) *Timer {
	return &Timer{clock: clock, due: clock.Now() - 1}
}

// CountdownMS arms the timer to expire ms milliseconds from now.  Zero
// means already expired.
func (t *Timer) CountdownMS(ms uint32) {
	ticks := ms / periodMS(t.clock.Period())
	if ticks > math.MaxInt32 {
		ticks = math.MaxInt32
	}
	t.due = t.clock.Now() + Tick(ticks)
}

// Countdown arms the timer to expire d from now.  Negative durations
// are treated as zero.
func (t *Timer) Countdown(d time.Duration) {
	t.CountdownMS(durationMS(d))
}

// CountdownSec arms the timer to expire sec seconds from now.
func (t *Timer) CountdownSec(sec uint32) {
	ms := uint64(sec) * 1000
	if ms > math.MaxUint32 {
		ms = math.MaxUint32
	}
	t.CountdownMS(uint32(ms))
}

// LeftMS returns the milliseconds until the deadline, or zero once it
// has passed.  The signed difference of two wrapping ticks stays correct
// across counter overflow.
func (t *Timer) LeftMS() int {
	dt := int32(t.due - t.clock.Now())
	if dt <= 0 {
		return 0
	}
	return int(int64(dt) * int64(periodMS(t.clock.Period())))
}

// Left is [Timer.LeftMS] as a duration.
func (t *Timer) Left() time.Duration {
	return time.Duration(t.LeftMS()) * time.Millisecond
}

// IsExpired reports whether no time is left.
func (t *Timer) IsExpired() bool {
	return t.LeftMS() == 0
}

func durationMS(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}
