package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore delegates expiry to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading key %q from redis: %w", key, err)
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, r.key(key), value, ttl).Err()
	if err != nil {
		if isOOM(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("error writing key %q to redis: %w", key, err)
	}

	kvLogger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Stored key in redis")
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("error deleting key %q from redis: %w", key, err)
	}
	return nil
}

// isOOM reports whether redis refused the write because maxmemory was reached.
func isOOM(err error) bool {
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg := redisErr.Error()
		return len(msg) >= 3 && msg[:3] == "OOM"
	}
	return false
}
