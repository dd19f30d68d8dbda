// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"sync"
	"time"

	"github.com/apex/log"
)

// Entry represents a single entry in the cache.
type Entry[V any] struct {
	// Key is the clear-text key used to identify the entry, for example
	// "s:pebble" or "g:abc123".
	Key string
	// Value is the memoized payload.
	Value V
	// ExpiresAt is the absolute time after which the entry is stale.
	ExpiresAt time.Time
}

// Expired reports whether the entry is stale at now. An entry is still
// served at exactly ExpiresAt.
func (e Entry[V]) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Observer receives cache lifecycle events.
type Observer interface {
	Hit()
	Miss()
	Expire()
}

// NoopObserver ignores every event.
type NoopObserver struct{}

func (NoopObserver) Hit()    {}
func (NoopObserver) Miss()   {}
func (NoopObserver) Expire() {}

// Cache maps keys to values with a per-entry TTL. It is safe for concurrent
// use. There is no size bound; entries live until overwritten, read after
// expiry, or the process exits.
type Cache[V any] struct {
	name     string
	mu       sync.Mutex
	entries  map[string]Entry[V]
	now      func() time.Time
	observer Observer
}

// Option customizes a Cache.
type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithObserver installs an Observer for hit/miss/expire events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// New returns an empty cache. name only shows up in debug logs.
func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{now: time.Now, observer: NoopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = NoopObserver{}
	}

	return &Cache[V]{
		name:     name,
		entries:  make(map[string]Entry[V]),
		now:      o.now,
		observer: o.observer,
	}
}

// Get returns the value stored under key if it has not expired. A stale entry
// is removed as a side effect and reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.observer.Miss()
		return zero, false
	}

	if entry.Expired(c.now()) {
		delete(c.entries, key)
		log.WithFields(log.Fields{"cache": c.name, "key": key}).Debug("cache entry expired")
		c.observer.Expire()
		c.observer.Miss()
		return zero, false
	}

	c.observer.Hit()
	return entry.Value, true
}

// Put stores value under key until now+ttl, replacing any prior entry.
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{
		Key:       key,
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}
}

// Delete removes key, if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]Entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
