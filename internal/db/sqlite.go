package db

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE,
    email TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS kv_entries (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    expires_at DATETIME,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_kv_entries_expires_at ON kv_entries(expires_at);

CREATE TABLE IF NOT EXISTS listings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description BLOB,
    description_hash TEXT,
    property_type TEXT,
    listing_type TEXT,
    price REAL,
    currency TEXT,
    address TEXT,
    city TEXT,
    state TEXT,
    country TEXT,
    postal_code TEXT,
    latitude REAL,
    longitude REAL,
    bedrooms INTEGER,
    bathrooms INTEGER,
    area REAL,
    year_built INTEGER,
    furnished INTEGER,
    features TEXT,
    images TEXT,
    status TEXT,
    created_at DATETIME,
    modified_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_listings_user_id ON listings(user_id);`

type SQLite struct {
	path string
	conn *sql.DB
}

func NewSQLite(path string) *SQLite {
	if path == "" {
		path = MemoryPath
	}
	return &SQLite{
		path: path,
		conn: nil,
	}
}

func (s *SQLite) InitDB() error {
	var err error
	s.conn, err = sql.Open("sqlite3", s.path)
	if err != nil {
		return err
	}

	// One connection: every ":memory:" connection would otherwise be its own database,
	// and SQLite serializes writers anyway.
	s.conn.SetMaxOpenConns(1)

	res, err := s.conn.Exec(schema)
	if err != nil {
		return err
	}

	dbLogger.Info().Str("path", s.path).Any("db_result", res).Msg("Database initialized")
	return nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLite) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.QueryContext(context.Background(), query, args...)
}

func (s *SQLite) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.ExecContext(context.Background(), query, args...)
}

func (s *SQLite) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.QueryContext(ctx, query, args...)
}

func (s *SQLite) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return s.conn.QueryRowContext(ctx, query, args...)
}

func (s *SQLite) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.ExecContext(ctx, query, args...)
}
