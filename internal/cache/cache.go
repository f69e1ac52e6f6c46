// Package cache provides a TTL cache with injected clock and storage
// dependencies, so callers can be tested without wall-clock time or a real
// backend.
package cache

import (
	"sync"
	"time"
)

// Backend stores raw cache entries.
type Backend interface {
	Get(key string) (entry, bool)
	Set(key string, e entry)
	Delete(key string)
}

type entry struct {
	Value   []byte
	Expires time.Time
}

// Cache wraps a backend with TTL semantics.
type Cache struct {
	backend Backend
	now     func() time.Time
}

// New creates a cache. A nil clock defaults to time.Now.
func New(backend Backend, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{backend: backend, now: now}
}

// Get returns the cached value for key, or false when missing or expired.
// Expired entries are evicted on access.
func (c *Cache) Get(key string) ([]byte, bool) {
	e, ok := c.backend.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(e.Expires) {
		c.backend.Delete(key)
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key for the given TTL.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.backend.Set(key, entry{Value: value, Expires: c.now().Add(ttl)})
}

// MemoryBackend is a map-backed Backend, safe for concurrent use.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]entry)}
}

func (b *MemoryBackend) Get(key string) (entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[key]
	return e, ok
}

func (b *MemoryBackend) Set(key string, e entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = e
}

func (b *MemoryBackend) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
}
