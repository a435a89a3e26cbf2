// Package modulecache is the Reader-owned LRU of module records in front of
// the store, per spec.md §4.2.
package modulecache

import (
	"github.com/wess-project/wessd/internal/lru"
	"github.com/wess-project/wessd/internal/store"
)

// Cache is a bounded, single-owner LRU from identifier to module record.
type Cache struct {
	inner *lru.Cache[string, *store.Record]
}

// New builds a Cache with the given capacity.
func New(capacity int) (*Cache, error) {
	inner, err := lru.New[string, *store.Record](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// GetOrFill returns the cached record for id, promoting recency on a hit.
// On a miss, fetch is called; if it returns ok=false (absent in the store)
// the miss is not cached, so a subsequent Create for the same id is never
// poisoned by a stale "absent" entry.
func (c *Cache) GetOrFill(id string, fetch func() (*store.Record, bool, error)) (*store.Record, bool, error) {
	return c.inner.GetOrFill(id, fetch)
}

// Invalidate drops id's entry if present.
func (c *Cache) Invalidate(id string) {
	c.inner.Invalidate(id)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}
