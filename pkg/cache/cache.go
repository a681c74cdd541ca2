// Package cache provides a bounded in-memory cache with coarse FIFO batch
// eviction.
//
// When an insert pushes the entry count above the ceiling, the oldest
// entries by insertion order are removed in one batch of 20% of the
// ceiling. Reads never change eviction order.
package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultEvictPercent is the share of the ceiling removed per eviction.
const DefaultEvictPercent = 20

// Stats holds cumulative counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type entry[V any] struct {
	value V
	seq   uint64
}

// Cache maps keys to values with at most Max entries after each insert.
// A Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	name  string
	max   int
	batch int

	mu      sync.Mutex
	entries map[K]*entry[V]
	order   []K
	seq     uint64
	stats   Stats

	onEvict func(K, V)

	// flights maps each key with a GetOrCompute in progress to its
	// singleflight id. Ids are never reused.
	group    singleflight.Group
	flights  map[K]*flight
	flightID uint64
}

type flight struct {
	id   string
	refs int
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithOnEvict registers fn to be called for every entry removed by batch
// eviction. It runs after the cache lock is released, on the goroutine
// whose insert triggered the eviction.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// New creates a cache holding at most max entries. A max below 1 is
// treated as 1.
func New[K comparable, V any](name string, max int, opts ...Option[K, V]) *Cache[K, V] {
	if max < 1 {
		max = 1
	}
	batch := max * DefaultEvictPercent / 100
	if batch < 1 {
		batch = 1
	}
	c := &Cache[K, V]{
		name:    name,
		max:     max,
		batch:   batch,
		entries: make(map[K]*entry[V]),
		flights: make(map[K]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the cache name.
func (c *Cache[K, V]) Name() string { return c.name }

// Max returns the ceiling.
func (c *Cache[K, V]) Max() int { return c.max }

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Get returns the cached value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

// Put stores value under key. Replacing an existing key keeps its original
// insertion position.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.mu.Unlock()
		return
	}
	c.seq++
	c.entries[key] = &entry[V]{value: value, seq: c.seq}
	c.order = append(c.order, key)
	var evicted []evicted[K, V]
	if len(c.entries) > c.max {
		evicted = c.evictLocked()
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, e := range evicted {
			c.onEvict(e.key, e.value)
		}
	}
}

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// evictLocked removes the oldest batch of entries and returns them when an
// eviction callback is set.
func (c *Cache[K, V]) evictLocked() []evicted[K, V] {
	n := c.batch
	if n > len(c.order) {
		n = len(c.order)
	}
	var out []evicted[K, V]
	if c.onEvict != nil {
		out = make([]evicted[K, V], 0, n)
	}
	for _, k := range c.order[:n] {
		if c.onEvict != nil {
			out = append(out, evicted[K, V]{key: k, value: c.entries[k].value})
		}
		delete(c.entries, k)
	}
	c.order = append(c.order[:0:0], c.order[n:]...)
	c.stats.Evictions += uint64(n)
	return out
}

// Delete removes key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]K(nil), c.order...)
}

// GetOrCompute returns the cached value for key, or calls compute and
// stores its result. Concurrent misses for the same key share one compute
// call. Errors are returned and not cached.
func (c *Cache[K, V]) GetOrCompute(ctx context.Context, key K, compute func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	id := c.joinFlight(key)
	defer c.leaveFlight(key)
	v, err, _ := c.group.Do(id, func() (any, error) {
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		c.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	out, _ := v.(V)
	return out, nil
}

// joinFlight returns the singleflight id for key, allocating one when no
// call for key is in progress. Distinct keys never share an id.
func (c *Cache[K, V]) joinFlight(key K) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[key]
	if !ok {
		c.flightID++
		f = &flight{id: strconv.FormatUint(c.flightID, 10)}
		c.flights[key] = f
	}
	f.refs++
	return f.id
}

func (c *Cache[K, V]) leaveFlight(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.flights[key]; f != nil {
		if f.refs--; f.refs == 0 {
			delete(c.flights, key)
		}
	}
}

// peek reads without touching the counters.
func (c *Cache[K, V]) peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.value, true
	}
	var zero V
	return zero, false
}
