// Package cache implements the bounded LRU memoization core: a key→value
// store with least-recently-used eviction, single-flight computation, an
// enable/disable switch, and hook-based observability.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Skryldev/pixelcache/core"
)

// DefaultCapacity bounds a cache constructed with a non-positive capacity.
// Unbounded growth is a defect, so the default is always finite.
const DefaultCapacity = 128

// Cache is a thread-safe LRU store.  All structural mutation (insert,
// evict, promote-to-MRU) serializes on one mutex; per-key computation is
// coordinated by a single-flight group so that at most one computation per
// key runs concurrently and all waiters share its outcome.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	ll       *list.List // front = most recently used
	items    map[K]*list.Element
	capacity int

	enabled atomic.Bool
	group   singleflight.Group
	keyFn   func(K) string
	hooks   []core.CacheHook
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a Cache bounded to capacity entries.  A non-positive
// capacity falls back to DefaultCapacity.  keyFn renders keys for the
// single-flight group and for hooks; it must be injective.
func New[K comparable, V any](capacity int, keyFn func(K) string) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[K, V]{
		ll:       list.New(),
		items:    make(map[K]*list.Element, capacity),
		capacity: capacity,
		keyFn:    keyFn,
	}
	c.enabled.Store(true)
	return c
}

// AddHook registers an observer for cache events.  Not safe to call
// concurrently with cache operations; wire hooks up front.
func (c *Cache[K, V]) AddHook(h core.CacheHook) { c.hooks = append(c.hooks, h) }

// SetEnabled toggles the cache at runtime.  While disabled, GetOrCompute
// always invokes the compute function and stores nothing; existing entries
// are untouched (use Clear to drop them).
func (c *Cache[K, V]) SetEnabled(on bool) { c.enabled.Store(on) }

// Enabled reports the current state of the switch.
func (c *Cache[K, V]) Enabled() bool { return c.enabled.Load() }

// GetOrCompute returns the cached value for key, or computes, stores, and
// returns it.  A hit promotes the entry to most-recently-used.  On a miss,
// concurrent callers for the same key block on a single computation and
// share its value; a compute error is propagated to every waiter and never
// cached, so a subsequent call retries.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if !c.enabled.Load() {
		return compute()
	}

	sk := c.keyFn(key)
	if v, ok := c.lookup(key); ok {
		c.notifyHit(sk)
		return v, nil
	}
	c.notifyMiss(sk)

	v, err, _ := c.group.Do(sk, func() (interface{}, error) {
		// A concurrent computation may have landed the entry between the
		// miss above and acquiring the flight.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		start := time.Now()
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		c.notifyStore(sk, time.Since(start))
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Get returns the value for key without computing, promoting on hit.
func (c *Cache[K, V]) Get(key K) (V, bool) { return c.lookup(key) }

// Evict removes key from the cache if present.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	ele, ok := c.items[key]
	if ok {
		c.removeLocked(ele)
	}
	c.mu.Unlock()
	if ok {
		c.notifyEvict(c.keyFn(key))
	}
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[K]*list.Element, c.capacity)
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Capacity returns the configured entry bound.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// ── internals ─────────────────────────────────────────────────────────────────

func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(ele)
	return ele.Value.(*entry[K, V]).value, true
}

func (c *Cache[K, V]) store(key K, value V) {
	var evicted []K
	c.mu.Lock()
	if ele, ok := c.items[key]; ok {
		ele.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(ele)
	} else {
		c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
		// The list back is the strict LRU; recency ties resolve to the
		// oldest-inserted entry by construction.
		for c.ll.Len() > c.capacity {
			oldest := c.ll.Back()
			evicted = append(evicted, oldest.Value.(*entry[K, V]).key)
			c.removeLocked(oldest)
		}
	}
	c.mu.Unlock()
	for _, k := range evicted {
		c.notifyEvict(c.keyFn(k))
	}
}

func (c *Cache[K, V]) removeLocked(ele *list.Element) {
	c.ll.Remove(ele)
	delete(c.items, ele.Value.(*entry[K, V]).key)
}

func (c *Cache[K, V]) notifyHit(key string) {
	for _, h := range c.hooks {
		h.OnHit(key)
	}
}

func (c *Cache[K, V]) notifyMiss(key string) {
	for _, h := range c.hooks {
		h.OnMiss(key)
	}
}

func (c *Cache[K, V]) notifyStore(key string, d time.Duration) {
	for _, h := range c.hooks {
		h.OnStore(key, d)
	}
}

func (c *Cache[K, V]) notifyEvict(key string) {
	for _, h := range c.hooks {
		h.OnEvict(key)
	}
}
