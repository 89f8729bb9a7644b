package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"wordsprint/internal/domain"
)

type recordModel struct {
	bun.BaseModel `bun:"table:leaderboard_records,alias:r"`

	ID             int64     `bun:"id,pk,autoincrement"`
	EntryKey       string    `bun:"entry_key,notnull,unique"`
	Player         string    `bun:"player,notnull"`
	Score          int       `bun:"score,notnull"`
	ElapsedSeconds int       `bun:"elapsed_seconds,notnull"`
	Mode           string    `bun:"mode,notnull"`
	SubmittedAt    time.Time `bun:"submitted_at,notnull"`
}

func (m recordModel) toDomain() domain.Record {
	return domain.Record{
		ID:             m.ID,
		Key:            m.EntryKey,
		Player:         m.Player,
		Score:          m.Score,
		ElapsedSeconds: m.ElapsedSeconds,
		Mode:           domain.Mode(m.Mode),
		SubmittedAt:    m.SubmittedAt,
	}
}

// OpenDB opens a bun handle over pgdriver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// LeaderboardStore keeps records in leaderboard_records. The unique
// entry_key constraint makes the first insert win; replacements are a single
// conditional UPDATE, so Postgres re-checks the condition against the latest
// row version under concurrent writers.
type LeaderboardStore struct {
	db *bun.DB
}

func NewLeaderboardStore(db *bun.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) Submit(ctx context.Context, rec domain.Record, policy domain.Policy) (domain.SubmitResult, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard_records (entry_key, player, score, elapsed_seconds, mode, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entry_key) DO NOTHING`,
		rec.Key, rec.Player, rec.Score, rec.ElapsedSeconds, string(rec.Mode), rec.SubmittedAt.UTC())
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n == 1 {
		return domain.ResultOK, nil
	}
	if policy == domain.PolicyHistory {
		return domain.ResultDuplicate, nil
	}

	res, err = s.db.ExecContext(ctx, `
		UPDATE leaderboard_records
		SET player = ?, score = ?, elapsed_seconds = ?, mode = ?, submitted_at = ?
		WHERE entry_key = ? AND (score < ? OR (score = ? AND elapsed_seconds > ?))`,
		rec.Player, rec.Score, rec.ElapsedSeconds, string(rec.Mode), rec.SubmittedAt.UTC(),
		rec.Key, rec.Score, rec.Score, rec.ElapsedSeconds)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return domain.ResultNotBetter, nil
	}
	return domain.ResultUpdated, nil
}

func (s *LeaderboardStore) Top(ctx context.Context, n int, mode domain.Mode) ([]domain.Record, error) {
	var models []recordModel
	q := s.db.NewSelect().
		Model(&models).
		OrderExpr("score DESC, elapsed_seconds ASC, id ASC")
	if mode != domain.ModeAny {
		q = q.Where("mode = ?", string(mode))
	}
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.Record, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (s *LeaderboardStore) CountAhead(ctx context.Context, score, elapsed int, mode domain.Mode) (int, error) {
	q := s.db.NewSelect().
		Model((*recordModel)(nil)).
		Where("(score > ? OR (score = ? AND elapsed_seconds < ?))", score, score, elapsed)
	if mode != domain.ModeAny {
		q = q.Where("mode = ?", string(mode))
	}
	return q.Count(ctx)
}

func (s *LeaderboardStore) Reset(ctx context.Context) error {
	_, err := s.db.NewTruncateTable().Model((*recordModel)(nil)).Exec(ctx)
	return err
}
