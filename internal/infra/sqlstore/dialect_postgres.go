package sqlstore

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL through lib/pq.
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(cfg DialectConfig) string {
	return cfg.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PostgresDialect) SchemaQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_records (
			id BIGSERIAL PRIMARY KEY,
			entry_key TEXT NOT NULL UNIQUE,
			player TEXT NOT NULL,
			score INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			mode TEXT NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS leaderboard_records_rank_idx
			ON leaderboard_records (score DESC, elapsed_seconds ASC, id ASC)`,
	}
}

func (d *PostgresDialect) InsertIgnoreQuery() string {
	return `INSERT INTO leaderboard_records ` + insertColumns + ` ON CONFLICT (entry_key) DO NOTHING`
}
