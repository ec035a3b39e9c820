package session

import (
	"context"
	"sync/atomic"
	"time"
)

// Timer watches an attempt's deadline. The once-per-second tick feeds the
// display only; the authoritative check re-derives remaining time from the
// clock on every tick, so a missed or throttled tick cannot extend the exam.
type Timer struct {
	start time.Time
	total time.Duration
	now   Clock
	fired atomic.Bool
}

// NewTimer creates a timer for an attempt that started at start with the
// given total allotted duration. now may be nil (wall clock).
func NewTimer(start time.Time, total time.Duration, now Clock) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{start: start, total: total, now: now}
}

// Remaining returns max(0, total - elapsed wall-clock time).
func (t *Timer) Remaining() time.Duration {
	elapsed := t.now().Sub(t.start)
	if remaining := t.total - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// Expired reports whether the deadline has passed.
func (t *Timer) Expired() bool { return t.Remaining() == 0 }

// FireTimeUp claims the one-shot time-up slot. The first caller gets true;
// every later call (and any call before expiry) gets false. This is what
// guarantees the time-up callback runs exactly once per deadline even when a
// watcher tick and a direct poll race.
func (t *Timer) FireTimeUp() bool {
	if !t.Expired() {
		return false
	}
	return t.fired.CompareAndSwap(false, true)
}

// Watch ticks once per second until the deadline passes or ctx is cancelled.
// onTick receives the freshly derived remaining duration for display; onTimeUp
// runs at most once, then Watch returns. Call in a goroutine.
func (t *Timer) Watch(ctx context.Context, onTick func(remaining time.Duration), onTimeUp func()) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := t.Remaining()
			if onTick != nil {
				onTick(remaining)
			}
			if remaining == 0 {
				if t.FireTimeUp() && onTimeUp != nil {
					onTimeUp()
				}
				return
			}
		}
	}
}
