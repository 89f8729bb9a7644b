package memory

import (
	"context"
	"sort"
	"sync"

	"wordsprint/internal/domain"
)

// MissTracker counts missed answers in process.
type MissTracker struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMissTracker() *MissTracker {
	return &MissTracker{counts: make(map[string]int64)}
}

func (m *MissTracker) RecordMiss(_ context.Context, answer string) error {
	m.mu.Lock()
	m.counts[answer]++
	m.mu.Unlock()
	return nil
}

// TopMisses returns the n most missed answers, most missed first. n <= 0 returns all.
func (m *MissTracker) TopMisses(_ context.Context, n int) ([]domain.MissCount, error) {
	m.mu.Lock()
	out := make([]domain.MissCount, 0, len(m.counts))
	for answer, misses := range m.counts {
		out = append(out, domain.MissCount{Answer: answer, Misses: misses})
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Misses != out[j].Misses {
			return out[i].Misses > out[j].Misses
		}
		return out[i].Answer < out[j].Answer
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
