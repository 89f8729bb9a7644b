package sqlstore

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite.
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(cfg DialectConfig) string {
	return cfg.Path
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// one writer at a time; sqlite locks the whole file anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	_, err := db.Exec("PRAGMA busy_timeout=5000;")
	return err
}

func (d *SQLiteDialect) SchemaQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_key TEXT NOT NULL UNIQUE,
			player TEXT NOT NULL,
			score INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			mode TEXT NOT NULL,
			submitted_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS leaderboard_records_rank_idx
			ON leaderboard_records (score DESC, elapsed_seconds ASC, id ASC)`,
	}
}

func (d *SQLiteDialect) InsertIgnoreQuery() string {
	return `INSERT INTO leaderboard_records ` + insertColumns + ` ON CONFLICT (entry_key) DO NOTHING`
}
