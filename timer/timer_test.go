package timer

import (
	"math"
	"testing"
	"time"
)

func TestNew_StartsExpired(t *testing.T) {
	clk := NewManualClock(10*time.Millisecond, 1000)
	tm := New(clk)

	if !tm.IsExpired() {
		t.Error("fresh timer should be expired")
	}
	if got := tm.LeftMS(); got != 0 {
		t.Errorf("LeftMS = %d, want 0", got)
	}
}

func TestNew_StartsExpiredAtTickZero(t *testing.T) {
	// now-1 wraps to MaxUint32; the signed difference is still -1.
	clk := NewManualClock(time.Millisecond, 0)
	if !New(clk).IsExpired() {
		t.Error("fresh timer at tick 0 should be expired")
	}
}

func TestCountdownMS(t *testing.T) {
	tests := []struct {
		name   string
		period time.Duration
		ms     uint32
		want   int
	}{
		{"zero", 10 * time.Millisecond, 0, 0},
		{"exact ticks", 10 * time.Millisecond, 1000, 1000},
		{"rounds down", 10 * time.Millisecond, 1009, 1000},
		{"below one tick", 10 * time.Millisecond, 9, 0},
		{"1ms period", time.Millisecond, 250, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := NewManualClock(tt.period, 42)
			tm := New(clk)
			tm.CountdownMS(tt.ms)
			if got := tm.LeftMS(); got != tt.want {
				t.Errorf("LeftMS = %d, want %d", got, tt.want)
			}
			if got := tm.IsExpired(); got != (tt.want == 0) {
				t.Errorf("IsExpired = %v, want %v", got, tt.want == 0)
			}
		})
	}
}

func TestCountdown_NegativeIsZero(t *testing.T) {
	clk := NewManualClock(time.Millisecond, 7)
	tm := New(clk)
	tm.Countdown(-5 * time.Second)
	if !tm.IsExpired() {
		t.Error("negative countdown should be expired")
	}
}

func TestCountdownSec(t *testing.T) {
	clk := NewManualClock(10*time.Millisecond, 0)
	tm := New(clk)
	tm.CountdownSec(3)
	if got := tm.Left(); got != 3*time.Second {
		t.Errorf("Left = %v, want 3s", got)
	}
}

func TestCountdown_Elapses(t *testing.T) {
	clk := NewManualClock(10*time.Millisecond, 500)
	tm := New(clk)
	tm.Countdown(100 * time.Millisecond)

	clk.AdvanceMS(40)
	if got := tm.LeftMS(); got != 60 {
		t.Errorf("LeftMS after 40ms = %d, want 60", got)
	}
	clk.AdvanceMS(60)
	if !tm.IsExpired() {
		t.Error("timer should be expired at the deadline")
	}
	clk.AdvanceMS(1000)
	if got := tm.LeftMS(); got != 0 {
		t.Errorf("LeftMS past deadline = %d, want 0", got)
	}
}

func TestCountdown_Wraparound(t *testing.T) {
	clk := NewManualClock(time.Millisecond, Tick(math.MaxUint32-20))
	tm := New(clk)
	tm.CountdownMS(50)

	prev := tm.LeftMS()
	if prev != 50 {
		t.Fatalf("LeftMS = %d, want 50", prev)
	}
	for i := 0; i < 60; i++ {
		clk.Advance(1)
		left := tm.LeftMS()
		if left > prev {
			t.Fatalf("step %d (tick %d): LeftMS jumped from %d to %d", i, clk.Now(), prev, left)
		}
		prev = left
	}
	if prev != 0 {
		t.Errorf("LeftMS after wrap = %d, want 0", prev)
	}
}

func TestCountdown_DeadlinePastMax(t *testing.T) {
	// Deadline itself wraps: due < now numerically.
	clk := NewManualClock(10*time.Millisecond, Tick(math.MaxUint32-1))
	tm := New(clk)
	tm.CountdownMS(100)

	if got := tm.LeftMS(); got != 100 {
		t.Errorf("LeftMS = %d, want 100", got)
	}
	clk.Advance(5)
	if got := tm.LeftMS(); got != 50 {
		t.Errorf("LeftMS after wrap = %d, want 50", got)
	}
}

func TestCountdownMS_ClampsHugeValues(t *testing.T) {
	clk := NewManualClock(time.Millisecond, 0)
	tm := New(clk)
	tm.CountdownMS(math.MaxUint32)
	if tm.IsExpired() {
		t.Error("huge countdown must not flip to expired")
	}
	if got := tm.LeftMS(); got != math.MaxInt32 {
		t.Errorf("LeftMS = %d, want %d", got, math.MaxInt32)
	}
}

func TestSystemClock(t *testing.T) {
	clk := NewSystemClock(0)
	if clk.Period() != time.Millisecond {
		t.Errorf("Period = %v, want 1ms", clk.Period())
	}

	tm := New(clk)
	tm.Countdown(30 * time.Millisecond)
	if tm.IsExpired() {
		t.Fatal("timer expired immediately")
	}
	time.Sleep(50 * time.Millisecond)
	if !tm.IsExpired() {
		t.Errorf("timer not expired after sleeping past the deadline, left %dms", tm.LeftMS())
	}
}

func TestSystemClockAt_Wraps(t *testing.T) {
	clk := NewSystemClockAt(time.Millisecond, Tick(math.MaxUint32))
	time.Sleep(5 * time.Millisecond)
	if now := clk.Now(); now > 1000 {
		t.Errorf("Now = %d, expected the counter to have wrapped", now)
	}
}
