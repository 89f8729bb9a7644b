package app

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"wordsprint/internal/domain"
)

// MaxPlayerNameLength bounds player names in runes.
const MaxPlayerNameLength = 32

// DefaultRankingSize is the number of records a ranking query returns by default.
const DefaultRankingSize = 10

// LeaderboardStore persists leaderboard records. Submit must apply the policy
// as a single atomic step per record key: insert when the key is absent,
// otherwise (best policy only) replace when the new record strictly precedes
// the stored one.
type LeaderboardStore interface {
	Submit(ctx context.Context, rec domain.Record, policy domain.Policy) (domain.SubmitResult, error)
	// Top returns records ordered by score desc, elapsed asc, insertion asc.
	// n <= 0 returns every record; domain.ModeAny disables the mode filter.
	Top(ctx context.Context, n int, mode domain.Mode) ([]domain.Record, error)
	// CountAhead counts records strictly preceding (score, elapsed).
	CountAhead(ctx context.Context, score, elapsed int, mode domain.Mode) (int, error)
	Reset(ctx context.Context) error
}

// LeaderboardOptions configures the update policy and ranking.
type LeaderboardOptions struct {
	Policy      domain.Policy
	ScopeByMode bool
	ScopeByDay  bool
	// Size is the default number of records returned by Top.
	Size int
	// RankedLimit marks positions beyond it as unranked; 0 means unlimited.
	RankedLimit int
	Clock       Clock
}

// Leaderboard validates submissions, derives record keys from the policy
// and delegates atomic persistence to the store.
type Leaderboard struct {
	store LeaderboardStore
	opts  LeaderboardOptions
}

func NewLeaderboard(store LeaderboardStore, opts LeaderboardOptions) *Leaderboard {
	if opts.Policy == "" {
		opts.Policy = domain.PolicyBest
	}
	if opts.Size <= 0 {
		opts.Size = DefaultRankingSize
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Leaderboard{store: store, opts: opts}
}

func (l *Leaderboard) Policy() domain.Policy { return l.opts.Policy }

// Submit records a finished run for player.
func (l *Leaderboard) Submit(ctx context.Context, player string, score, elapsed int, mode domain.Mode) (domain.SubmitResult, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return "", err
	}
	if err := validateResult(score, elapsed); err != nil {
		return "", err
	}
	if mode == domain.ModeAny {
		mode = domain.ModeFreeText
	}

	now := l.opts.Clock.Now().UTC()
	rec := domain.Record{
		Key:            l.recordKey(player, score, elapsed, mode, now.Format("2006-01-02")),
		Player:         player,
		Score:          score,
		ElapsedSeconds: elapsed,
		Mode:           mode,
		SubmittedAt:    now,
	}
	result, err := l.store.Submit(ctx, rec, l.opts.Policy)
	if err != nil {
		return "", domain.StorageError("submit record", err)
	}
	return result, nil
}

// Top returns the n best records; n <= 0 uses the configured size.
func (l *Leaderboard) Top(ctx context.Context, n int, mode domain.Mode) ([]domain.Record, error) {
	if n <= 0 {
		n = l.opts.Size
	}
	records, err := l.store.Top(ctx, n, mode)
	if err != nil {
		return nil, domain.StorageError("load ranking", err)
	}
	return records, nil
}

// All returns every record in ranking order.
func (l *Leaderboard) All(ctx context.Context, mode domain.Mode) ([]domain.Record, error) {
	records, err := l.store.Top(ctx, 0, mode)
	if err != nil {
		return nil, domain.StorageError("load ranking", err)
	}
	return records, nil
}

// RankOf is 1 plus the number of stored records strictly preceding
// (score, elapsed). Records tied on both fields do not count, so a stored
// result ranks the same whether it is looked up before or after submission.
func (l *Leaderboard) RankOf(ctx context.Context, score, elapsed int, mode domain.Mode) (domain.Rank, error) {
	if err := validateResult(score, elapsed); err != nil {
		return domain.Rank{}, err
	}

	ahead, err := l.store.CountAhead(ctx, score, elapsed, mode)
	if err != nil {
		return domain.Rank{}, domain.StorageError("compute rank", err)
	}
	pos := ahead + 1
	return domain.Rank{
		Position: pos,
		Ranked:   l.opts.RankedLimit <= 0 || pos <= l.opts.RankedLimit,
	}, nil
}

// Reset removes every record.
func (l *Leaderboard) Reset(ctx context.Context) error {
	if err := l.store.Reset(ctx); err != nil {
		return domain.StorageError("reset leaderboard", err)
	}
	return nil
}

// recordKey identifies the slot a record occupies. Enumerated parts come first
// and the free-form player name last, so distinct inputs never collide.
func (l *Leaderboard) recordKey(player string, score, elapsed int, mode domain.Mode, day string) string {
	if l.opts.Policy == domain.PolicyHistory {
		return strings.Join([]string{"history", string(mode), strconv.Itoa(score), strconv.Itoa(elapsed), player}, "|")
	}
	scopeMode, scopeDay := "*", "*"
	if l.opts.ScopeByMode {
		scopeMode = string(mode)
	}
	if l.opts.ScopeByDay {
		scopeDay = day
	}
	return strings.Join([]string{"best", scopeMode, scopeDay, player}, "|")
}

func normalizePlayer(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLength {
		return "", &domain.ValidationError{Field: "name", Reason: "too long"}
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", &domain.ValidationError{Field: "name", Reason: "contains control characters"}
		}
	}
	return name, nil
}

func validateResult(score, elapsed int) error {
	switch {
	case score < 0:
		return &domain.ValidationError{Field: "score", Reason: "must not be negative"}
	case score > domain.MaxScore:
		return &domain.ValidationError{Field: "score", Reason: "must not exceed " + strconv.Itoa(domain.MaxScore)}
	case score%domain.PointsPerCorrect != 0:
		return &domain.ValidationError{Field: "score", Reason: "must be a multiple of " + strconv.Itoa(domain.PointsPerCorrect)}
	case elapsed < 0:
		return &domain.ValidationError{Field: "time", Reason: "must not be negative"}
	case elapsed > domain.MaxElapsedSeconds:
		return &domain.ValidationError{Field: "time", Reason: "must not exceed " + strconv.Itoa(domain.MaxElapsedSeconds)}
	}
	return nil
}
