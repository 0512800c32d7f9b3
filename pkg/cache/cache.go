// Package cache provides a thread-safe cache for compiled conditions.
//
// A condition is translated at most once per Key, no matter how many call
// sites or goroutines ask for it at the same time: concurrent misses on the
// same key wait for a single build and share its result. Failed builds are
// not cached, so a later request retries.
//
// # Example
//
//	c := cache.New(0)
//	prog, hit, err := c.GetOrCompile(key, build)
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/sandrolain/gocondition/pkg/translator"
)

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	prog *translator.Program
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Builds uint64
}

// Cache stores compiled programs. With a positive capacity it evicts the
// least recently used entry once full; with capacity 0 it never evicts.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	flight singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
	builds atomic.Uint64
}

// New creates a cache. capacity 0 (or less) means unbounded.
func New(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get retrieves a program by encoded key and marks it most recently used.
func (c *Cache) Get(key string) (*translator.Program, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	// Skip the write lock when the entry is already the most recent.
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !alreadyFront {
		// Promote to front under write lock; re-check in case of concurrent eviction.
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()

		if !ok {
			return nil, false
		}
	}
	return el.Value.(*entry).prog, true
}

// Set inserts or replaces a program.
func (c *Cache) Set(key string, prog *translator.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).prog = prog
		c.ll.MoveToFront(el)
		return
	}

	if c.capacity > 0 && c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry{key: key, prog: prog})
	c.items[key] = el
}

type built struct {
	prog   *translator.Program
	cached bool
}

// GetOrCompile returns the program for key, calling build on a miss. build
// runs at most once at a time per key; callers that arrive while it runs
// receive its result. hit is false only for the caller whose build produced
// the program.
func (c *Cache) GetOrCompile(key Key, build func() (*translator.Program, error)) (prog *translator.Program, hit bool, err error) {
	k := key.String()
	if p, ok := c.Get(k); ok {
		c.hits.Add(1)
		return p, true, nil
	}

	ran := false
	v, err, _ := c.flight.Do(k, func() (any, error) {
		ran = true
		// A flight for k may have completed between Get and Do.
		if p, ok := c.Get(k); ok {
			return built{prog: p, cached: true}, nil
		}
		p, err := build()
		if err != nil {
			return nil, err
		}
		c.builds.Add(1)
		c.Set(k, p)
		return built{prog: p}, nil
	})
	if err != nil {
		c.misses.Add(1)
		return nil, false, err
	}

	b := v.(built)
	hit = !ran || b.cached
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return b.prog, hit, nil
}

// Stats returns the current counters. Misses include failed builds.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Builds: c.builds.Load(),
	}
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries, or 0 when unbounded.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key Key) {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[k]; ok {
		c.ll.Remove(el)
		delete(c.items, k)
	}
}

// Clear removes all entries from the cache. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
