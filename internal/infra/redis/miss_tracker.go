package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"wordsprint/internal/domain"
)

// MissTracker counts missed answers in a sorted set: ZINCRBY {prefix}misses 1 {answer}.
type MissTracker struct {
	client *redis.Client
	key    string
}

func NewMissTracker(client *redis.Client, prefix string) *MissTracker {
	return &MissTracker{client: client, key: prefix + "misses"}
}

func (m *MissTracker) RecordMiss(ctx context.Context, answer string) error {
	return m.client.ZIncrBy(ctx, m.key, 1, answer).Err()
}

func (m *MissTracker) TopMisses(ctx context.Context, n int) ([]domain.MissCount, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	entries, err := m.client.ZRevRangeWithScores(ctx, m.key, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.MissCount, 0, len(entries))
	for _, z := range entries {
		answer, _ := z.Member.(string)
		out = append(out, domain.MissCount{Answer: answer, Misses: int64(z.Score)})
	}
	return out, nil
}
