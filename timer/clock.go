// Package timer provides the tick clock capability and the countdown
// timer used to bound every blocking network operation.
//
// Time is measured in ticks of a fixed period on a wrapping 32-bit
// counter.  All deadline arithmetic is modular, so a timer armed just
// before the counter overflows keeps reporting a sane remainder after it.
package timer

import (
	"sync"
	"time"
)

// Tick is a value of the wrapping tick counter.
type Tick uint32

// DefaultPeriod is the tick period used when none is configured.
const DefaultPeriod = 10 * time.Millisecond

// Clock is a monotonically increasing, wrapping tick counter with a
// fixed period.
type Clock interface {
	// Now returns the current tick count.
	Now() Tick

	// Period returns the duration of one tick.  It is at least one
	// millisecond.
	Period() time.Duration
}

// ── System clock ─────────────────────────────────────────────────────

// SystemClock derives ticks from the process monotonic clock.
type SystemClock struct {
	start  time.Time
	period time.Duration
	offset Tick
}

// NewSystemClock returns a clock ticking every period, starting at
// zero.  Periods below one millisecond are raised to one millisecond.
func NewSystemClock(period time.Duration) *SystemClock {
	return NewSystemClockAt(period, 0)
}

// NewSystemClockAt is like [NewSystemClock] but the counter starts at
// the given tick.
func NewSystemClockAt(period time.Duration, start Tick) *SystemClock {
	return &SystemClock{
		start:  time.Now(),
		period: normalizePeriod(period),
		offset: start,
	}
}

// Now implements [Clock].  The conversion to uint32 truncates, which is
// exactly the counter wraparound.
func (c *SystemClock) Now() Tick {
	elapsed := time.Since(c.start) / c.period
	return c.offset + Tick(uint32(elapsed))
}

// Period implements [Clock].
func (c *SystemClock) Period() time.Duration { return c.period }

// ── Manual clock ─────────────────────────────────────────────────────

// ManualClock is a clock that only moves when told to.  It is safe for
// concurrent use, so a fake transport running in another goroutine can
// advance it.
type ManualClock struct {
	mu     sync.Mutex
	now    Tick
	period time.Duration
}

// NewManualClock returns a manual clock at tick start.
func NewManualClock(period time.Duration, start Tick) *ManualClock {
	return &ManualClock{now: start, period: normalizePeriod(period)}
}

// Now implements [Clock].
func (c *ManualClock) Now() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Period implements [Clock].
func (c *ManualClock) Period() time.Duration { return c.period }

// Set moves the counter to t.
func (c *ManualClock) Set(t Tick) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the counter forward by n ticks, wrapping on overflow.
func (c *ManualClock) Advance(n uint32) {
	c.mu.Lock()
	c.now += Tick(n)
	c.mu.Unlock()
}

// AdvanceMS moves the counter forward by ms milliseconds, rounded down
// to whole ticks.
func (c *ManualClock) AdvanceMS(ms uint32) {
	c.Advance(ms / periodMS(c.period))
}

func normalizePeriod(p time.Duration) time.Duration {
	if p < time.Millisecond {
		return time.Millisecond
	}
	return p.Truncate(time.Millisecond)
}

// periodMS returns the tick period in whole milliseconds (at least 1).
func periodMS(p time.Duration) uint32 {
	ms := p.Milliseconds()
	if ms < 1 {
		return 1
	}
	return uint32(ms)
}
