package sqlstore

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL.
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN enables parseTime so DATETIME columns scan into time.Time.
func (d *MySQLDialect) DSN(cfg DialectConfig) string {
	dsn := cfg.URL
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *MySQLDialect) SchemaQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_records (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			entry_key VARCHAR(255) COLLATE utf8mb4_bin NOT NULL UNIQUE,
			player VARCHAR(128) NOT NULL,
			score INT NOT NULL,
			elapsed_seconds INT NOT NULL,
			mode VARCHAR(16) NOT NULL,
			submitted_at DATETIME(6) NOT NULL,
			INDEX leaderboard_records_rank_idx (score DESC, elapsed_seconds ASC, id ASC)
		)`,
	}
}

func (d *MySQLDialect) InsertIgnoreQuery() string {
	return `INSERT IGNORE INTO leaderboard_records ` + insertColumns
}
