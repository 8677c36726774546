package cache

import (
	"container/list"
	"sync"
)

// MemoryCache is an in-memory LRU bounded by the total size of its values.
type MemoryCache struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes

	items map[string]*list.Element
	order *list.List

	mu    sync.Mutex
	stats Stats
}

type memEntry struct {
	key string
	pcm []byte
}

// NewMemoryCache creates a memory cache holding up to capacity bytes.
func NewMemoryCache(capacity int64) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		stats:    Stats{Capacity: capacity},
	}
}

// Get retrieves a value and marks it most recently used.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*memEntry).pcm, true
}

// Put stores a value, evicting the least recently used entries to make
// room.
func (c *MemoryCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := int64(len(value))
	if valueSize > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.unlinkLocked(elem)
	}
	for c.size+valueSize > c.capacity && c.order.Len() > 0 {
		c.unlinkLocked(c.order.Back())
		c.stats.Evictions++
	}

	c.items[key] = c.order.PushFront(&memEntry{key: key, pcm: value})
	c.size += valueSize
	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.unlinkLocked(elem)
	}
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.Items = int64(len(c.items))
	return stats
}

// unlinkLocked drops elem from the order list and the index.
func (c *MemoryCache) unlinkLocked(elem *list.Element) {
	c.order.Remove(elem)
	entry := elem.Value.(*memEntry)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.pcm))
}
