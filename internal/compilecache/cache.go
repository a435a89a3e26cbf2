// Package compilecache is the Runner-owned LRU of compiled Wasm artifacts,
// per spec.md §4.3. Artifacts are expensive to produce and cheap to
// instantiate; eviction closes the underlying wazero.CompiledModule so its
// resources are released promptly rather than left for GC.
package compilecache

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wess-project/wessd/internal/lru"
)

// Cache is a bounded, single-owner LRU from identifier to compiled
// artifact.
type Cache struct {
	ctx   context.Context
	inner *lru.Cache[string, wazero.CompiledModule]
}

// New builds a Cache with the given capacity. ctx is used only to close
// artifacts the cache drops, on LRU overflow or Invalidate; it should be a
// long-lived background context, not a per-request one.
func New(ctx context.Context, capacity int) (*Cache, error) {
	c := &Cache{ctx: ctx}
	inner, err := lru.New[string, wazero.CompiledModule](capacity, c.closeEvicted)
	if err != nil {
		return nil, err
	}
	c.inner = inner
	return c, nil
}

func (c *Cache) closeEvicted(_ string, value wazero.CompiledModule) {
	_ = value.Close(c.ctx)
}

// GetOrFill returns the cached artifact for id, or compiles it via compile
// on a miss. Compile errors are never cached, so a transient failure does
// not poison future invocations of the same id.
func (c *Cache) GetOrFill(id string, compile func() (wazero.CompiledModule, bool, error)) (wazero.CompiledModule, bool, error) {
	return c.inner.GetOrFill(id, compile)
}

// Invalidate drops and closes id's entry if present.
func (c *Cache) Invalidate(id string) {
	c.inner.InvalidateWithValue(id, func(value wazero.CompiledModule) {
		_ = value.Close(c.ctx)
	})
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.inner.Len()
}
