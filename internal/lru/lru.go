// Package lru provides the get_or_fill/invalidate cache shape both the
// module cache and the compile cache are built on, backed by
// hashicorp/golang-lru/v2's strict recency-ordered eviction rather than the
// "delete whatever map iteration finds first" policy this project's
// ancestor used.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a single-threaded, owner-confined LRU. It is not safe for
// concurrent use: each of Reader and Runner owns one instance exclusively,
// per spec.
type Cache[K comparable, V any] struct {
	inner *lru.Cache[K, V]
}

// New builds a Cache with the given capacity. Capacity must be positive.
// onEvict, if non-nil, is called for every entry the cache drops — LRU
// overflow, and also the explicit removals done by Invalidate,
// InvalidateWithValue and Purge, since golang-lru's Remove fires the same
// callback — so callers whose values hold a resource (a compiled module)
// can release it.
func New[K comparable, V any](capacity int, onEvict func(K, V)) (*Cache[K, V], error) {
	var inner *lru.Cache[K, V]
	var err error
	if onEvict != nil {
		inner, err = lru.NewWithEvict[K, V](capacity, onEvict)
	} else {
		inner, err = lru.New[K, V](capacity)
	}
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{inner: inner}, nil
}

// GetOrFill returns the cached value for key, promoting it to
// most-recently-used. On a miss it calls fetch; if fetch returns ok=false
// the miss is NOT cached (so absent records are never negatively cached,
// matching the "Reader cache does not cache absent" design note). If fetch
// returns ok=true, the value is inserted (evicting the least-recently-used
// entry on overflow) and returned.
func (c *Cache[K, V]) GetOrFill(key K, fetch func() (V, bool, error)) (V, bool, error) {
	if v, ok := c.inner.Get(key); ok {
		return v, true, nil
	}

	v, ok, err := fetch()
	if err != nil {
		var zero V
		return zero, false, err
	}
	if !ok {
		var zero V
		return zero, false, nil
	}

	c.inner.Add(key, v)
	return v, true, nil
}

// Invalidate drops key if present. No-op otherwise.
func (c *Cache[K, V]) Invalidate(key K) {
	c.inner.Remove(key)
}

// InvalidateWithValue drops key if present, calling onEvict with the value
// being removed first. Used by caches whose entries hold a resource that
// must be released on an explicit invalidation. If the cache was built with
// an onEvict callback, that callback also fires for the removed entry.
func (c *Cache[K, V]) InvalidateWithValue(key K, onEvict func(V)) {
	if v, ok := c.inner.Peek(key); ok {
		onEvict(v)
	}
	c.inner.Remove(key)
}

// Len returns the number of entries currently cached.
func (c *Cache[K, V]) Len() int {
	return c.inner.Len()
}

// Purge removes every entry. If the cache was built with onEvict, it fires
// for each entry removed.
func (c *Cache[K, V]) Purge() {
	c.inner.Purge()
}
