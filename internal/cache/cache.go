// Package cache provides a concurrency-safe in-memory cache whose entries
// remember when they were fetched.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the lifetime of a book detail entry.
const DefaultTTL = 5 * time.Minute

// Entry wraps a cached value with the time it was fetched.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// TTL is a keyed cache. Entries are never evicted; they only turn stale, so
// a stale entry can still be served while a fresh one is fetched.
type TTL[K comparable, V any] struct {
	mu  sync.RWMutex
	m   map[K]Entry[V]
	ttl time.Duration
	now func() time.Time
}

// New creates a cache. A non-positive ttl means DefaultTTL; a nil now means time.Now.
func New[K comparable, V any](ttl time.Duration, now func() time.Time) *TTL[K, V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TTL[K, V]{
		m:   make(map[K]Entry[V]),
		ttl: ttl,
		now: now,
	}
}

// Get returns the entry for key and whether it is still fresh.
func (c *TTL[K, V]) Get(key K) (entry Entry[V], fresh, ok bool) {
	c.mu.RLock()
	entry, ok = c.m[key]
	c.mu.RUnlock()

	if !ok {
		return entry, false, false
	}
	return entry, c.now().Sub(entry.FetchedAt) < c.ttl, true
}

// Put stores value under key, stamped with the current time. Any previous
// entry is overwritten.
func (c *TTL[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = Entry[V]{Value: value, FetchedAt: c.now()}
}

// Delete removes the entry for key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

// Len returns the number of entries, fresh or stale.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// TTL returns the configured lifetime.
func (c *TTL[K, V]) TTL() time.Duration {
	return c.ttl
}
