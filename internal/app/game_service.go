package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"wordsprint/internal/domain"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
	// DeleteIdle closes and removes sessions inactive since before cutoff.
	DeleteIdle(cutoff time.Time) int
}

// WordRepository supplies the word pool (from cache/backing store).
type WordRepository interface {
	Words(ctx context.Context) ([]domain.WordEntry, error)
	// Invalidate drops any cached pool so the next Words call reloads it.
	Invalidate(ctx context.Context) error
}

// MissTracker counts incorrectly answered words.
type MissTracker interface {
	RecordMiss(ctx context.Context, answer string) error
	TopMisses(ctx context.Context, n int) ([]domain.MissCount, error)
}

// GameOption customises a GameService.
type GameOption func(*GameService)

func WithMissTracker(t MissTracker) GameOption {
	return func(s *GameService) { s.misses = t }
}

func WithServiceClock(c Clock) GameOption {
	return func(s *GameService) { s.clock = c }
}

// WithIDGenerator replaces the random session id source.
func WithIDGenerator(next func() string) GameOption {
	return func(s *GameService) { s.newID = next }
}

// GameService contains the quiz use cases: running sessions and handing
// finished results to the leaderboard.
type GameService struct {
	sessions    SessionRepository
	words       WordRepository
	leaderboard *Leaderboard
	misses      MissTracker
	clock       Clock
	newID       func() string
}

func NewGameService(sessions SessionRepository, words WordRepository, leaderboard *Leaderboard, opts ...GameOption) *GameService {
	s := &GameService{
		sessions:    sessions,
		words:       words,
		leaderboard: leaderboard,
		clock:       SystemClock,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GameService) Leaderboard() *Leaderboard { return s.leaderboard }

// Words returns the current word pool; sessions cannot start until it loads.
func (s *GameService) Words(ctx context.Context) ([]domain.WordEntry, error) {
	words, err := s.words.Words(ctx)
	if err != nil {
		return nil, domain.StorageError("load words", err)
	}
	return words, nil
}

// ReloadWords discards the cached word pool and loads it again, returning
// the size of the new pool.
func (s *GameService) ReloadWords(ctx context.Context) (int, error) {
	if err := s.words.Invalidate(ctx); err != nil {
		return 0, domain.StorageError("invalidate words", err)
	}
	words, err := s.Words(ctx)
	if err != nil {
		return 0, err
	}
	return len(words), nil
}

// Start creates a fresh session and activates its first question.
func (s *GameService) Start(ctx context.Context, count int, mode domain.Mode) (Snapshot, error) {
	pool, err := s.Words(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	session := NewSession(s.newID(), pool, WithClock(s.clock))
	snap, err := session.Start(count, mode)
	if err != nil {
		return Snapshot{}, err
	}
	s.sessions.Put(session)
	return snap, nil
}

func (s *GameService) Session(_ context.Context, id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *GameService) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Answer submits raw for the active question. A first incorrect answer is
// counted as a miss.
func (s *GameService) Answer(ctx context.Context, id, raw string) (domain.AnswerResult, Snapshot, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return domain.AnswerResult{}, Snapshot{}, err
	}
	result, applied, err := session.Submit(raw)
	if err != nil {
		return domain.AnswerResult{}, Snapshot{}, err
	}
	if applied && !result.Correct {
		s.recordMiss(ctx, result.CorrectAnswer)
	}
	return result, session.Snapshot(), nil
}

func (s *GameService) Next(ctx context.Context, id string) (Snapshot, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Next()
}

// SubmitScore hands the finished session's summary to the leaderboard. The
// session is kept, so a failed submission can be retried without replaying.
func (s *GameService) SubmitScore(ctx context.Context, id, player string) (domain.SubmitResult, domain.Rank, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return "", domain.Rank{}, err
	}
	summary, err := session.Summary()
	if err != nil {
		return "", domain.Rank{}, err
	}
	result, err := s.leaderboard.Submit(ctx, player, summary.Score, summary.ElapsedSeconds, summary.Mode)
	if err != nil {
		return "", domain.Rank{}, err
	}
	rank, err := s.leaderboard.RankOf(ctx, summary.Score, summary.ElapsedSeconds, summary.Mode)
	if err != nil {
		return result, domain.Rank{}, err
	}
	return result, rank, nil
}

// Subscribe returns a channel of snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(ctx context.Context, id string) (*Session, <-chan Snapshot, func(), error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return session, ch, cancel, nil
}

// PronunciationText is the answer string handed to the playback collaborator.
func (s *GameService) PronunciationText(ctx context.Context, id string) (string, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return "", err
	}
	return session.RevealedAnswer()
}

// Abandon discards a session.
func (s *GameService) Abandon(_ context.Context, id string) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(id)
}

// SweepIdle discards sessions without activity for longer than idle.
func (s *GameService) SweepIdle(idle time.Duration) int {
	return s.sessions.DeleteIdle(s.clock.Now().Add(-idle))
}

// RecordMiss counts a miss reported by a client that plays locally.
func (s *GameService) RecordMiss(ctx context.Context, answer string) error {
	if answer == "" {
		return &domain.ValidationError{Field: "word", Reason: "required"}
	}
	if s.misses == nil {
		return nil
	}
	if err := s.misses.RecordMiss(ctx, answer); err != nil {
		return domain.StorageError("record miss", err)
	}
	return nil
}

func (s *GameService) TopMisses(ctx context.Context, n int) ([]domain.MissCount, error) {
	if s.misses == nil {
		return []domain.MissCount{}, nil
	}
	misses, err := s.misses.TopMisses(ctx, n)
	if err != nil {
		return nil, domain.StorageError("load misses", err)
	}
	return misses, nil
}

func (s *GameService) recordMiss(ctx context.Context, answer string) {
	if s.misses == nil {
		return
	}
	if err := s.misses.RecordMiss(ctx, answer); err != nil {
		log.Printf("record miss %q: %v", answer, err)
	}
}
