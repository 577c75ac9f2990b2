// Package cache provides a thread-safe generic cache and the rendered description cache.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Update runs fn under the write lock with the current value for key.
// fn returns the new value and whether to keep it; returning false deletes the key.
func (c *Cache[K, V]) Update(key K, fn func(current V, exists bool) (V, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, exists := c.items[key]
	next, keep := fn(current, exists)
	if keep {
		c.items[key] = next
	} else {
		delete(c.items, key)
	}
}

var renderedDescriptionCache = NewCache[string, []byte]()

// GetRenderedDescription returns the HTML previously rendered for a description content hash.
func GetRenderedDescription(contentHash string) ([]byte, bool) {
	return renderedDescriptionCache.Get(contentHash)
}

func SetRenderedDescription(contentHash string, html []byte) {
	renderedDescriptionCache.Set(contentHash, html)
}

func ClearRenderedDescriptionCache() {
	renderedDescriptionCache.Clear()
}
