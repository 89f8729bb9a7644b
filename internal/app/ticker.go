package app

import (
	"context"
	"time"
)

// DefaultTickInterval matches the refresh cadence of the browser timer.
const DefaultTickInterval = 200 * time.Millisecond

// Ticks emits the session's live elapsed seconds every interval until ctx is
// cancelled or the session is closed, then closes the channel. A tick that
// the receiver is not ready for is skipped; the value is recomputed from the
// clock on the next tick, so the cadence never affects the elapsed total.
func Ticks(ctx context.Context, s *Session, every time.Duration) <-chan int {
	if every <= 0 {
		every = DefaultTickInterval
	}
	out := make(chan int, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.Done():
				return
			case <-ticker.C:
				select {
				case out <- s.DisplaySeconds():
				default:
				}
			}
		}
	}()
	return out
}
