package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"wordsprint/internal/domain"
	"wordsprint/internal/infra/memory"
)

// WordRepository caches the word pool in Redis so replicas share one copy,
// falling back to a loader on cache miss.
// The pool is stored as: SET {prefix}words <json array of {prompt, answer}>
type WordRepository struct {
	client *redis.Client
	loader memory.WordLoader
	ttl    time.Duration
	prefix string
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewWordRepository(client *redis.Client, loader memory.WordLoader, ttl time.Duration, prefix string) *WordRepository {
	return &WordRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		prefix: prefix,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *WordRepository) Words(ctx context.Context) ([]domain.WordEntry, error) {
	if words, ok := r.cached(ctx); ok {
		return words, nil
	}

	result, err, _ := r.sf.Do(r.key(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if words, ok := r.cached(ctx); ok {
			return words, nil
		}

		words, err := r.loader.LoadWords(ctx)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, domain.ErrEmptyPool
		}

		raw, err := json.Marshal(words)
		if err != nil {
			return nil, err
		}
		// a failed cache write only costs a reload
		if err := r.client.Set(ctx, r.key(), raw, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("cache word pool: %v", err)
		}
		return words, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.WordEntry), nil
}

// Invalidate removes the cached pool.
func (r *WordRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key()).Err()
}

func (r *WordRepository) cached(ctx context.Context) ([]domain.WordEntry, bool) {
	raw, err := r.client.Get(ctx, r.key()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached word pool: %v", err)
		}
		return nil, false
	}
	var words []domain.WordEntry
	if err := json.Unmarshal(raw, &words); err != nil || len(words) == 0 {
		return nil, false
	}
	return words, true
}

func (r *WordRepository) key() string {
	return r.prefix + "words"
}

func (r *WordRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
