// Package expenses keeps the locally held expense collection in step with the
// server. Mutations are applied only after the server confirmed them.
package expenses

import (
	"sync"

	"github.com/spendline/spendline/internal/collection"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
)

// Cache is the insertion-ordered expense collection of the signed-in user.
type Cache struct {
	mu    sync.RWMutex
	items *collection.Ordered[int64, model.Expense]
	guard lifetime.Guard
	// loaded is false until the first ReplaceAll after a reset.
	loaded bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{items: collection.NewOrdered(func(e model.Expense) int64 { return e.ID })}
}

// Begin returns a ticket that goes stale when the cache is reset.
func (c *Cache) Begin() lifetime.Ticket { return c.guard.Begin() }

// ReplaceAll swaps in a freshly fetched collection.
func (c *Cache) ReplaceAll(records []model.Expense) {
	c.mu.Lock()
	c.items.ReplaceAll(records)
	c.loaded = true
	c.mu.Unlock()
}

// Upsert inserts or replaces one record; replacements keep their position.
func (c *Cache) Upsert(e model.Expense) {
	c.mu.Lock()
	c.items.Upsert(e)
	c.mu.Unlock()
}

// Remove deletes id. Absent ids are a no-op.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	c.items.Remove(id)
	c.mu.Unlock()
}

// Get returns the cached expense id.
func (c *Cache) Get(id int64) (model.Expense, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items.Get(id)
}

// Snapshot returns a copy of the collection in insertion order.
func (c *Cache) Snapshot() []model.Expense {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items.Snapshot()
}

// Len returns the number of cached expenses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items.Len()
}

// Loaded reports whether the cache holds a fetched collection.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Reset empties the cache and invalidates in-flight requests.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.guard.Invalidate()
	c.items.Reset()
	c.loaded = false
	c.mu.Unlock()
}

// apply runs fn under the write lock if tk is still valid.
func (c *Cache) apply(tk lifetime.Ticket, fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := tk.Check(); err != nil {
		return err
	}
	fn()
	return nil
}
