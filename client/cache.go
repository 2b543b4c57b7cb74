package client

import (
	"strings"
	"sync"
)

// cacheTag prefixes every cached calendar read; mutations invalidate
// everything under it.
const cacheTag = "calendar"

// tagCache is a small read cache keyed by "tag:discriminator" strings.
// A mutation invalidates a whole tag rather than individual entries.
type tagCache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

func newTagCache() *tagCache {
	return &tagCache{entries: make(map[string]interface{})}
}

func (c *tagCache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.entries[key]
	return val, ok
}

func (c *tagCache) set(key string, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = val
}

// invalidate drops every entry whose key begins with the given tag.
func (c *tagCache) invalidate(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, tag) {
			delete(c.entries, key)
		}
	}
}
