package memory

import (
	"testing"
	"time"

	"wordsprint/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewSession("s-1", sampleWords())
	store.Put(session)
	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected session present")
	}

	store.Delete("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreReplaceClosesOld(t *testing.T) {
	store := NewSessionStore()
	old := app.NewSession("s-1", sampleWords())
	store.Put(old)
	store.Put(app.NewSession("s-1", sampleWords()))

	select {
	case <-old.Done():
	default:
		t.Fatalf("expected replaced session to be closed")
	}
}

func TestSessionStoreDeleteIdle(t *testing.T) {
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	clock := app.ClockFunc(func() time.Time { return now })

	store := NewSessionStore()
	idle := app.NewSession("idle", sampleWords(), app.WithClock(clock))
	store.Put(idle)
	now = now.Add(time.Hour)
	store.Put(app.NewSession("fresh", sampleWords(), app.WithClock(clock)))

	if removed := store.DeleteIdle(now.Add(-30 * time.Minute)); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := store.Get("idle"); ok {
		t.Fatalf("expected idle session removed")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Fatalf("expected fresh session kept")
	}
	select {
	case <-idle.Done():
	default:
		t.Fatalf("expected idle session closed")
	}
}
