package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"wordsprint/internal/domain"
)

// WordLoader loads the word pool from the words table.
type WordLoader struct {
	pool *pgxpool.Pool
}

func NewWordLoader(pool *pgxpool.Pool) *WordLoader {
	return &WordLoader{pool: pool}
}

func (l *WordLoader) LoadWords(ctx context.Context) ([]domain.WordEntry, error) {
	rows, err := l.pool.Query(ctx, `SELECT prompt, answer FROM words ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	defer rows.Close()

	var words []domain.WordEntry
	for rows.Next() {
		var w domain.WordEntry
		if err := rows.Scan(&w.Prompt, &w.Answer); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	return words, nil
}

// ImportWords inserts words in one batch, skipping pairs already present.
// It returns the number of new rows.
func (l *WordLoader) ImportWords(ctx context.Context, words []domain.WordEntry) (int, error) {
	if len(words) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, w := range words {
		batch.Queue(`INSERT INTO words (prompt, answer) VALUES ($1, $2) ON CONFLICT (prompt, answer) DO NOTHING`, w.Prompt, w.Answer)
	}
	results := l.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range words {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("import words: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
