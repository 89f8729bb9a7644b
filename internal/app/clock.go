package app

import (
	"fmt"
	"time"
)

// Clock supplies the current time. time.Now carries a monotonic reading, so
// intervals measured with it are unaffected by wall-clock adjustments.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the process clock.
var SystemClock Clock = ClockFunc(time.Now)

// stopwatch accumulates the time a question is active. Each stop commits the
// interval floored to whole seconds, so the total always equals the sum of
// the per-question think times. Elapsed time is derived from start/stop
// instants, never from counting ticks.
type stopwatch struct {
	running   bool
	startedAt time.Time
	seconds   int
}

// start begins a new interval. An interval that is still running is discarded
// without being committed.
func (w *stopwatch) start(now time.Time) {
	w.running = true
	w.startedAt = now
}

// stop commits the running interval in whole seconds and returns it.
// Stopping an idle stopwatch is a no-op and reports false.
func (w *stopwatch) stop(now time.Time) (int, bool) {
	if !w.running {
		return 0, false
	}
	w.running = false
	secs := wholeSeconds(now.Sub(w.startedAt))
	w.seconds += secs
	return secs, true
}

func (w *stopwatch) read(now time.Time) int {
	return liveSeconds(w.seconds, w.running, w.startedAt, now)
}

// liveSeconds is the display value: committed seconds plus the whole seconds
// of the running interval.
func liveSeconds(committed int, running bool, startedAt, now time.Time) int {
	if !running {
		return committed
	}
	return committed + wholeSeconds(now.Sub(startedAt))
}

func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
