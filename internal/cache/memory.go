// file: internal/cache/memory.go
// version: 1.2.0
// guid: c4d5e6f7-a8b9-4c0d-9e1f-2a3b4c5d6e7f

package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is a generic TTL cache safe for concurrent use. It is the hot
// tier: fast, in-process, and capacity-limited. When full, the entry
// closest to expiry is evicted to make room.
type Memory[T any] struct {
	mu         sync.RWMutex
	items      map[string]entry[T]
	defaultTTL time.Duration
	capacity   int
}

// NewMemory creates a hot-tier cache with the given default TTL and
// capacity. A capacity of 0 or less means unbounded.
func NewMemory[T any](defaultTTL time.Duration, capacity int) *Memory[T] {
	return &Memory[T]{
		items:      make(map[string]entry[T]),
		defaultTTL: defaultTTL,
		capacity:   capacity,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Memory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Memory[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a specific TTL, evicting if at capacity.
func (c *Memory[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && c.capacity > 0 && len(c.items) >= c.capacity {
		c.evictLocked(now)
	}
	c.items[key] = entry[T]{value: value, expiresAt: now.Add(ttl)}
}

// evictLocked drops expired entries, then the entry closest to expiry if
// still at capacity. Caller must hold the write lock.
func (c *Memory[T]) evictLocked(now time.Time) {
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	if len(c.items) < c.capacity {
		return
	}
	var victim string
	var soonest time.Time
	for k, e := range c.items {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim = k
			soonest = e.expiresAt
		}
	}
	delete(c.items, victim)
}

// Invalidate removes a single key.
func (c *Memory[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// InvalidateAll removes all entries.
func (c *Memory[T]) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len returns the current number of entries, expired or not.
func (c *Memory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
