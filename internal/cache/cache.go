package cache

import "sync"

// Cache is a small read-mostly in-process cache. The catalog service uses it
// to memoize the category list between writes.
type Cache struct {
	mu    sync.RWMutex
	store map[string]any
}

func New() *Cache {
	return &Cache{store: make(map[string]any)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.store[key]
	return val, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}
