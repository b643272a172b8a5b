package imaging

import "sync"

// Cache keeps decoded pixel buffers keyed by dataset identity so repeated
// thumbnail or preview requests skip the decode step. Entries never expire
// on their own; callers invalidate a key when the underlying pixel data or
// image-description attributes change.
type Cache struct {
	mu      sync.Mutex
	buffers map[string]*PixelBuffer
}

func NewCache() *Cache {
	return &Cache{buffers: map[string]*PixelBuffer{}}
}

func (c *Cache) Get(key string) (*PixelBuffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.buffers[key]
	return buf, ok
}

func (c *Cache) Put(key string, buf *PixelBuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers[key] = buf
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buffers, key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffers)
}
