package sqlstore

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect hides the differences between the supported SQL engines.
type Dialect interface {
	// DriverName is the name registered with database/sql.
	DriverName() string
	DSN(cfg DialectConfig) string
	// RewriteQuery converts ? placeholders where the driver needs another syntax.
	RewriteQuery(query string) string
	ConfigureConnection(db *sql.DB) error
	// SchemaQueries create the leaderboard table and its indexes idempotently.
	SchemaQueries() []string
	// InsertIgnoreQuery inserts a record unless its entry_key already exists.
	InsertIgnoreQuery() string
}

// DialectConfig holds connection settings.
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

const insertColumns = `(entry_key, player, score, elapsed_seconds, mode, submitted_at) VALUES (?, ?, ?, ?, ?, ?)`
