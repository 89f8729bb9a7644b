package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"wordsprint/internal/domain"
)

// WordLoader fetches the word pool from a backing store (CSV file, Postgres).
type WordLoader interface {
	LoadWords(ctx context.Context) ([]domain.WordEntry, error)
}

const poolKey = "words"

// WordRepository caches the word pool with TTL to avoid re-reading the source
// on every session start. A zero TTL caches forever.
type WordRepository struct {
	loader WordLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	words     []domain.WordEntry
	loaded    bool
	expiresAt time.Time
}

func NewWordRepository(loader WordLoader, ttl time.Duration) *WordRepository {
	return &WordRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *WordRepository) Words(ctx context.Context) ([]domain.WordEntry, error) {
	if words, ok := r.cached(r.clock()); ok {
		return words, nil
	}

	result, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		now := r.clock()
		if words, ok := r.cached(now); ok {
			return words, nil
		}

		words, err := r.loader.LoadWords(ctx)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, domain.ErrEmptyPool
		}

		r.mu.Lock()
		r.words = words
		r.loaded = true
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WordEntry), nil
}

// Invalidate drops the cached pool so the next call reloads it.
func (r *WordRepository) Invalidate(_ context.Context) error {
	r.mu.Lock()
	r.loaded = false
	r.words = nil
	r.mu.Unlock()
	return nil
}

func (r *WordRepository) cached(now time.Time) ([]domain.WordEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, false
	}
	if r.ttl > 0 && !r.expiresAt.After(now) {
		return nil, false
	}
	return r.words, true
}

// StaticWordLoader serves a fixed pool (useful for tests/demos).
type StaticWordLoader struct {
	words []domain.WordEntry
}

func NewStaticWordLoader(words []domain.WordEntry) *StaticWordLoader {
	return &StaticWordLoader{words: words}
}

func (l *StaticWordLoader) LoadWords(_ context.Context) ([]domain.WordEntry, error) {
	if len(l.words) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return append([]domain.WordEntry(nil), l.words...), nil
}

func (r *WordRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter so replicas do not reload together
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
