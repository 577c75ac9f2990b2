package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/util/compression"
)

// SQLiteStore persists compressed values in the kv_entries table.
type SQLiteStore struct {
	db         db.DB
	compressor compression.Compressor

	now func() time.Time
}

func NewSQLiteStore(database db.DB) *SQLiteStore {
	return &SQLiteStore{
		db:         database,
		compressor: compression.NewZstdCompressor(),
		now:        time.Now,
	}
}

// WithCompressor swaps the value codec. Entries written with another codec become unreadable.
func (s *SQLiteStore) WithCompressor(c compression.Compressor) *SQLiteStore {
	s.compressor = c
	return s
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var compressed []byte
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv_entries WHERE key = ?`, key).
		Scan(&compressed, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading key %q: %w", key, err)
	}

	if expiresAt.Valid && !s.now().Before(expiresAt.Time) {
		if err := s.Delete(ctx, key); err != nil {
			kvLogger.Error().Err(err).Str("key", key).Msg("Failed to delete expired entry")
		}
		return nil, ErrNotFound
	}

	// Values the codec cannot read are treated like unparsable drafts: dropped.
	value, err := s.compressor.Decompress(compressed)
	if err != nil {
		kvLogger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable entry")
		if err := s.Delete(ctx, key); err != nil {
			kvLogger.Error().Err(err).Str("key", key).Msg("Failed to delete undecodable entry")
		}
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	compressed, err := s.compressor.Compress(value)
	if err != nil {
		return fmt.Errorf("error compressing key %q: %w", key, err)
	}

	now := s.now().UTC()
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: now.Add(ttl), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, expires_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		key, compressed, expiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("error writing key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("error deleting key %q: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes every entry whose expiry has passed and returns how many were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("error purging expired entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	kvLogger.Info().Int64("purged", n).Msg("Purged expired entries")
	return n, nil
}
