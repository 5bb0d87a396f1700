package corpus

import "sync/atomic"

// Cache holds the current snapshot. Readers always see either the previous
// or the next complete snapshot, never a partial one.
type Cache struct {
	current atomic.Pointer[Snapshot]
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Load returns the current snapshot, or nil when nothing has been built.
func (c *Cache) Load() *Snapshot {
	return c.current.Load()
}

// Swap installs s and returns the snapshot it replaced.
func (c *Cache) Swap(s *Snapshot) *Snapshot {
	return c.current.Swap(s)
}
