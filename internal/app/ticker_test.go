package app

import (
	"context"
	"testing"
	"time"

	"wordsprint/internal/domain"
)

func TestTicksStopWhenSessionCloses(t *testing.T) {
	clock := newManualClock()
	s := newTestSession(fivePool(), clock)
	if _, err := s.Start(1, domain.ModeFreeText); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(2 * time.Second)

	ticks := Ticks(context.Background(), s, 5*time.Millisecond)
	select {
	case got := <-ticks:
		if got != 2 {
			t.Fatalf("expected 2 seconds, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("no tick received")
	}

	s.Close()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("ticker did not stop after close")
		}
	}
}

func TestTicksStopOnCancel(t *testing.T) {
	s := newTestSession(fivePool(), newManualClock())
	ctx, cancel := context.WithCancel(context.Background())
	ticks := Ticks(ctx, s, time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("ticker did not stop after cancel")
		}
	}
}
