package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"wordsprint/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay in a local map, since they own timers and subscriber
// channels; Redis marks their liveness so operators and other replicas can
// see which sessions exist. The marker expires with the idle TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, prefix string) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		prefix:   prefix,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	if old, ok := s.sessions[session.ID()]; ok && old != session {
		old.Close()
	}
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	s.touch(session.ID())
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		s.touch(id)
	}
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), s.key(id)).Err(); err != nil {
		log.Printf("clear session marker %s: %v", id, err)
	}
}

func (s *SessionStore) DeleteIdle(cutoff time.Time) int {
	s.mu.Lock()
	var removed []string
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			session.Close()
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	if len(removed) == 0 {
		return 0
	}
	keys := make([]string, len(removed))
	for i, id := range removed {
		keys[i] = s.key(id)
	}
	if err := s.client.Del(context.Background(), keys...).Err(); err != nil {
		log.Printf("clear idle session markers: %v", err)
	}
	return len(removed)
}

// Live counts the session markers present in Redis.
func (s *SessionStore) Live(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

func (s *SessionStore) touch(id string) {
	if err := s.client.Set(context.Background(), s.key(id), "1", s.ttl).Err(); err != nil {
		log.Printf("mark session %s: %v", id, err)
	}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + "session:" + id
}
