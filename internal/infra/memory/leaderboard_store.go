package memory

import (
	"context"
	"sort"
	"sync"

	"wordsprint/internal/domain"
)

// LeaderboardStore is an in-process app.LeaderboardStore. A single mutex
// serializes writers, which makes each Submit one read-modify-write step.
type LeaderboardStore struct {
	mu      sync.RWMutex
	seq     int64
	records map[string]*domain.Record
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{records: make(map[string]*domain.Record)}
}

func (s *LeaderboardStore) Submit(_ context.Context, rec domain.Record, policy domain.Policy) (domain.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[rec.Key]
	if !ok {
		s.seq++
		rec.ID = s.seq
		s.records[rec.Key] = &rec
		return domain.ResultOK, nil
	}
	if policy == domain.PolicyHistory {
		return domain.ResultDuplicate, nil
	}
	if !rec.Precedes(existing.Score, existing.ElapsedSeconds) {
		return domain.ResultNotBetter, nil
	}
	// the slot keeps its original insertion id
	rec.ID = existing.ID
	*existing = rec
	return domain.ResultUpdated, nil
}

func (s *LeaderboardStore) Top(_ context.Context, n int, mode domain.Mode) ([]domain.Record, error) {
	s.mu.RLock()
	out := make([]domain.Record, 0, len(s.records))
	for _, r := range s.records {
		if mode == domain.ModeAny || r.Mode == mode {
			out = append(out, *r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score || a.ElapsedSeconds != b.ElapsedSeconds {
			return a.Precedes(b.Score, b.ElapsedSeconds)
		}
		return a.ID < b.ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *LeaderboardStore) CountAhead(_ context.Context, score, elapsed int, mode domain.Mode) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ahead := 0
	for _, r := range s.records {
		if mode != domain.ModeAny && r.Mode != mode {
			continue
		}
		if r.Precedes(score, elapsed) {
			ahead++
		}
	}
	return ahead, nil
}

func (s *LeaderboardStore) Reset(_ context.Context) error {
	s.mu.Lock()
	s.records = make(map[string]*domain.Record)
	s.mu.Unlock()
	return nil
}
