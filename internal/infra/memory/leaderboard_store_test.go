package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"wordsprint/internal/app"
	"wordsprint/internal/domain"
)

func newBoard(opts app.LeaderboardOptions) (*app.Leaderboard, *LeaderboardStore) {
	store := NewLeaderboardStore()
	if opts.Clock == nil {
		now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
		opts.Clock = app.ClockFunc(func() time.Time { return now })
	}
	return app.NewLeaderboard(store, opts), store
}

func TestBestPolicyKeepsBetterRecord(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{Policy: domain.PolicyBest})

	steps := []struct {
		score, elapsed int
		want           domain.SubmitResult
	}{
		{80, 30, domain.ResultOK},
		{70, 10, domain.ResultNotBetter},
		{80, 30, domain.ResultNotBetter},
		{80, 25, domain.ResultUpdated},
		{90, 60, domain.ResultUpdated},
	}
	for i, step := range steps {
		got, err := board.Submit(ctx, "alice", step.score, step.elapsed, domain.ModeFreeText)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, got)
		}
	}

	top, err := board.Top(ctx, 0, domain.ModeAny)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Score != 90 || top[0].ElapsedSeconds != 60 {
		t.Fatalf("expected single best record, got %+v", top)
	}
}

func TestHistoryPolicySuppressesExactDuplicates(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{Policy: domain.PolicyHistory})

	submit := func(score, elapsed int, mode domain.Mode) domain.SubmitResult {
		t.Helper()
		res, err := board.Submit(ctx, "bob", score, elapsed, mode)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		return res
	}
	if got := submit(50, 40, domain.ModeFreeText); got != domain.ResultOK {
		t.Fatalf("expected ok, got %s", got)
	}
	if got := submit(50, 40, domain.ModeFreeText); got != domain.ResultDuplicate {
		t.Fatalf("expected duplicate, got %s", got)
	}
	if got := submit(50, 40, domain.ModeMultipleChoice); got != domain.ResultOK {
		t.Fatalf("expected ok for other mode, got %s", got)
	}
	if got := submit(30, 40, domain.ModeFreeText); got != domain.ResultOK {
		t.Fatalf("expected worse run appended, got %s", got)
	}

	all, _ := board.All(ctx, domain.ModeAny)
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestTopOrdering(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{})

	for _, r := range []struct {
		name           string
		score, elapsed int
	}{{"A", 80, 30}, {"B", 80, 25}, {"C", 90, 50}, {"D", 80, 25}} {
		if _, err := board.Submit(ctx, r.name, r.score, r.elapsed, domain.ModeFreeText); err != nil {
			t.Fatalf("submit %s: %v", r.name, err)
		}
	}
	top, err := board.Top(ctx, 3, domain.ModeAny)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	got := []string{}
	for _, r := range top {
		got = append(got, r.Player)
	}
	if len(got) != 3 || got[0] != "C" || got[1] != "B" || got[2] != "D" {
		t.Fatalf("expected C, B, D, got %v", got)
	}
}

func TestRankOf(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{RankedLimit: 2})
	for _, r := range []struct {
		name           string
		score, elapsed int
	}{{"A", 80, 30}, {"B", 80, 25}, {"C", 90, 50}} {
		_, _ = board.Submit(ctx, r.name, r.score, r.elapsed, domain.ModeFreeText)
	}

	cases := []struct {
		score, elapsed int
		pos            int
		ranked         bool
	}{
		{100, 99, 1, true},
		{80, 26, 3, false},
		{80, 25, 2, true},
		{90, 50, 1, true},
		{0, 0, 4, false},
	}
	for _, tc := range cases {
		rank, err := board.RankOf(ctx, tc.score, tc.elapsed, domain.ModeAny)
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if rank.Position != tc.pos || rank.Ranked != tc.ranked {
			t.Fatalf("rank(%d,%d) = %+v, want %d/%v", tc.score, tc.elapsed, rank, tc.pos, tc.ranked)
		}
	}
}

func TestRankOfCountsPlayersOwnBetterRecord(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{})
	_, _ = board.Submit(ctx, "alice", 100, 10, domain.ModeFreeText)
	_, _ = board.Submit(ctx, "bob", 70, 10, domain.ModeFreeText)

	res, err := board.Submit(ctx, "alice", 50, 10, domain.ModeFreeText)
	if err != nil || res != domain.ResultNotBetter {
		t.Fatalf("expected not_better, got %s %v", res, err)
	}
	rank, err := board.RankOf(ctx, 50, 10, domain.ModeAny)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if rank.Position != 3 {
		t.Fatalf("alice 100 and bob 70 both precede 50, want 3, got %d", rank.Position)
	}

	// after an update the stored record does not count against itself
	if res, _ := board.Submit(ctx, "alice", 120, 10, domain.ModeFreeText); res != domain.ResultUpdated {
		t.Fatalf("expected updated, got %s", res)
	}
	if rank, _ := board.RankOf(ctx, 120, 10, domain.ModeAny); rank.Position != 1 {
		t.Fatalf("expected rank 1 after update, got %d", rank.Position)
	}
}

func TestScopeByModeKeepsOneRecordPerMode(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{ScopeByMode: true})

	_, _ = board.Submit(ctx, "alice", 50, 10, domain.ModeFreeText)
	res, err := board.Submit(ctx, "alice", 40, 10, domain.ModeMultipleChoice)
	if err != nil || res != domain.ResultOK {
		t.Fatalf("expected separate record per mode, got %s %v", res, err)
	}
	text, _ := board.Top(ctx, 0, domain.ModeFreeText)
	choice, _ := board.Top(ctx, 0, domain.ModeMultipleChoice)
	if len(text) != 1 || len(choice) != 1 {
		t.Fatalf("expected one record per mode, got %d and %d", len(text), len(choice))
	}
}

func TestScopeByDayStartsFreshEachDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 11, 22, 23, 0, 0, 0, time.UTC)
	board, _ := newBoard(app.LeaderboardOptions{
		ScopeByDay: true,
		Clock:      app.ClockFunc(func() time.Time { return now }),
	})

	_, _ = board.Submit(ctx, "alice", 90, 10, domain.ModeFreeText)
	if res, _ := board.Submit(ctx, "alice", 10, 10, domain.ModeFreeText); res != domain.ResultNotBetter {
		t.Fatalf("expected not_better on the same day, got %s", res)
	}
	now = now.Add(2 * time.Hour)
	if res, _ := board.Submit(ctx, "alice", 10, 10, domain.ModeFreeText); res != domain.ResultOK {
		t.Fatalf("expected ok on the next day, got %s", res)
	}
}

func TestConcurrentSubmissionsKeepOneBestRecord(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoard(app.LeaderboardOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := board.Submit(ctx, "tabs", 10*i, 100-i, domain.ModeFreeText); err != nil {
				t.Errorf("submit: %v", err)
			}
		}(i)
	}
	wg.Wait()

	all, _ := board.All(ctx, domain.ModeAny)
	if len(all) != 1 {
		t.Fatalf("expected one record, got %d", len(all))
	}
	if all[0].Score != 490 || all[0].ElapsedSeconds != 51 {
		t.Fatalf("expected the best run to win, got %+v", all[0])
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	board, store := newBoard(app.LeaderboardOptions{})

	for _, tc := range []struct {
		name           string
		score, elapsed int
	}{
		{"", 10, 10},
		{"   ", 10, 10},
		{"alice", -10, 10},
		{"alice", 10, -1},
		{"bad\nname", 10, 10},
		{"abcdefghijklmnopqrstuvwxyz1234567", 10, 10},
		{"alice", 15, 10},
		{"alice", domain.MaxScore + 10, 10},
		{"alice", 1_000_000_000_000, 5},
		{"alice", 10, domain.MaxElapsedSeconds + 1},
	} {
		if _, err := board.Submit(ctx, tc.name, tc.score, tc.elapsed, domain.ModeFreeText); err == nil {
			t.Fatalf("expected validation error for %+v", tc)
		}
	}
	top, _ := store.Top(ctx, 0, domain.ModeAny)
	if len(top) != 0 {
		t.Fatalf("rejected input must not be stored, got %+v", top)
	}
}

func TestMissTrackerOrdersByCount(t *testing.T) {
	ctx := context.Background()
	tracker := NewMissTracker()
	for _, w := range []string{"cat", "dog", "cat", "apple", "dog", "cat"} {
		_ = tracker.RecordMiss(ctx, w)
	}
	top, _ := tracker.TopMisses(ctx, 2)
	if len(top) != 2 || top[0].Answer != "cat" || top[0].Misses != 3 || top[1].Answer != "dog" {
		t.Fatalf("unexpected misses %+v", top)
	}
}
