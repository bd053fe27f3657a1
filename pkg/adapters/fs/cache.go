package fs

import (
	"os"
	"sync"
	"time"
)

// cacheEntry is a file value tagged with the stat data it was read under.
type cacheEntry struct {
	info    os.FileInfo
	modTime time.Time
	size    int64
	value   string
}

// cache avoids re-reading files that are unchanged on disk. Atomic writes
// replace the inode, so SameFile catches rewrites within one mtime tick.
type cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[string]cacheEntry)}
}

func (c *cache) lookup(key string, info os.FileInfo) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !os.SameFile(e.info, info) || !e.modTime.Equal(info.ModTime()) || e.size != info.Size() {
		return "", false
	}
	return e.value, true
}

func (c *cache) store(key string, info os.FileInfo, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{info: info, modTime: info.ModTime(), size: info.Size(), value: value}
}

func (c *cache) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached keys.
func (c *cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
