package sqlstore

import (
	"context"
	"strings"
	"time"

	"wordsprint/internal/domain"
)

// LeaderboardStore implements app.LeaderboardStore on any supported SQL
// engine. The unique entry_key decides the first insert; replacement is a
// single conditional UPDATE.
type LeaderboardStore struct {
	db *DB
}

func NewLeaderboardStore(db *DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) Submit(ctx context.Context, rec domain.Record, policy domain.Policy) (domain.SubmitResult, error) {
	submitted := rec.SubmittedAt.UTC()
	res, err := s.db.ExecContext(ctx, s.db.Dialect.InsertIgnoreQuery(),
		rec.Key, rec.Player, rec.Score, rec.ElapsedSeconds, string(rec.Mode), submitted)
	if err != nil {
		return "", err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if inserted > 0 {
		return domain.ResultOK, nil
	}
	if policy == domain.PolicyHistory {
		return domain.ResultDuplicate, nil
	}

	res, err = s.db.ExecContext(ctx, `
		UPDATE leaderboard_records
		SET player = ?, score = ?, elapsed_seconds = ?, mode = ?, submitted_at = ?
		WHERE entry_key = ? AND (score < ? OR (score = ? AND elapsed_seconds > ?))`,
		rec.Player, rec.Score, rec.ElapsedSeconds, string(rec.Mode), submitted,
		rec.Key, rec.Score, rec.Score, rec.ElapsedSeconds)
	if err != nil {
		return "", err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if updated == 0 {
		return domain.ResultNotBetter, nil
	}
	return domain.ResultUpdated, nil
}

func (s *LeaderboardStore) Top(ctx context.Context, n int, mode domain.Mode) ([]domain.Record, error) {
	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString(`SELECT id, entry_key, player, score, elapsed_seconds, mode, submitted_at FROM leaderboard_records`)
	if mode != domain.ModeAny {
		query.WriteString(` WHERE mode = ?`)
		args = append(args, string(mode))
	}
	query.WriteString(` ORDER BY score DESC, elapsed_seconds ASC, id ASC`)
	if n > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Record{}
	for rows.Next() {
		var (
			rec       domain.Record
			mode      string
			submitted time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Key, &rec.Player, &rec.Score, &rec.ElapsedSeconds, &mode, &submitted); err != nil {
			return nil, err
		}
		rec.Mode = domain.Mode(mode)
		rec.SubmittedAt = submitted.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *LeaderboardStore) CountAhead(ctx context.Context, score, elapsed int, mode domain.Mode) (int, error) {
	query := `SELECT COUNT(*) FROM leaderboard_records WHERE (score > ? OR (score = ? AND elapsed_seconds < ?))`
	args := []interface{}{score, score, elapsed}
	if mode != domain.ModeAny {
		query += ` AND mode = ?`
		args = append(args, string(mode))
	}
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (s *LeaderboardStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM leaderboard_records`)
	return err
}
