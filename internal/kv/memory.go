package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/homestead/internal/cache"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore keeps values in process. A positive quota bounds the summed size of keys and values.
type MemoryStore struct {
	entries *cache.Cache[string, memoryEntry]

	mu    sync.Mutex
	used  int
	quota int

	now func() time.Time
}

func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		entries: cache.NewCache[string, memoryEntry](),
		quota:   quota,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	if entry.expired(m.now()) {
		m.removeExpired(key)
		return nil, ErrNotFound
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	m.entries.Update(key, func(current memoryEntry, exists bool) (memoryEntry, bool) {
		used := m.used
		if exists {
			used -= len(key) + len(current.value)
		}
		size := len(key) + len(value)
		if m.quota > 0 && used+size > m.quota {
			err = fmt.Errorf("%w: %d bytes needed, %d of %d in use", ErrQuotaExceeded, size, used, m.quota)
			return current, exists
		}
		m.used = used + size

		entry := memoryEntry{value: append([]byte(nil), value...)}
		if ttl > 0 {
			entry.expiresAt = m.now().Add(ttl)
		}
		return entry, true
	})

	if err != nil {
		kvLogger.Warn().Err(err).Str("key", key).Msg("Memory store refused write")
	}
	return err
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.remove(key)
	return nil
}

func (m *MemoryStore) remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Update(key, func(current memoryEntry, exists bool) (memoryEntry, bool) {
		if exists {
			m.used -= len(key) + len(current.value)
		}
		return current, false
	})
}

func (m *MemoryStore) removeExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries.Update(key, func(current memoryEntry, exists bool) (memoryEntry, bool) {
		if !exists {
			return current, false
		}
		if current.expired(now) {
			m.used -= len(key) + len(current.value)
			return current, false
		}
		return current, true
	})
}

// Used reports the bytes currently accounted against the quota.
func (m *MemoryStore) Used() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}
