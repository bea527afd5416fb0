// Package cache provides the request-level TTL cache that sits in front of
// the question generator. Entries are immutable once written and expire
// lazily at read time; there is no background sweep and no single-flight
// deduplication, so concurrent misses for the same key may each call
// upstream.
package cache

import (
	"sync"
	"time"

	"github.com/examforge/examforge/internal/model"
)

// Clock abstracts time.Now so tests can substitute a fake clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Key identifies one generation request tuple.
type Key struct {
	Board      model.ExamBoard
	Subject    model.Subject
	TargetYear int
	Kind       string
}

type entry struct {
	expiresAt time.Time
	payload   any
}

// Cache is a mutex-guarded TTL map. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[Key]entry
}

// New creates a cache with the given TTL using the system clock.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, systemClock{})
}

// NewWithClock creates a cache with an explicit clock.
func NewWithClock(ttl time.Duration, clock Clock) *Cache {
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[Key]entry),
	}
}

// Get returns the cached payload for k, or false on a miss. Expired
// entries are removed on access.
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.After(c.clock.Now()) {
		delete(c.entries, k)
		return nil, false
	}
	return e.payload, true
}

// Put stores payload under k for the configured TTL.
func (c *Cache) Put(k Key, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry{
		expiresAt: c.clock.Now().Add(c.ttl),
		payload:   payload,
	}
}

// Purge drops every entry and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[Key]entry)
	return n
}

// Len returns the number of stored entries, including any not yet
// observed as expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
