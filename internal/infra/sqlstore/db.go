package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DB wraps a database/sql handle with dialect-aware placeholder rewriting.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DialectFor resolves a database type name.
func DialectFor(kind string) (Dialect, error) {
	switch strings.ToLower(kind) {
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", kind)
}

// Open connects, configures the pool and ensures the schema exists.
func Open(ctx context.Context, dialect Dialect, cfg DialectConfig) (*DB, error) {
	sqldb, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := dialect.ConfigureConnection(sqldb); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	db := &DB{DB: sqldb, Dialect: dialect}
	for _, q := range dialect.SchemaQueries() {
		if _, err := sqldb.ExecContext(ctx, q); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return db, nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.RewriteQuery(query), args...)
}
