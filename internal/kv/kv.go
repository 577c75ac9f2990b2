// Package kv is the key-value persistence used for drafts. Values are opaque bytes.
package kv

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned by Get for missing or expired keys.
	ErrNotFound = errors.New("kv: key not found")

	// ErrQuotaExceeded is returned by Set when the store has no room for the value.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")
)

// Store is a get/set/delete key-value store. A zero ttl means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var kvLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	kvLogger = l
}
