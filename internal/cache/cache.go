// Package cache keeps rendered PCM so repeated utterances skip synthesis.
// Entries live in a memory LRU backed by an optional zstd-compressed disk
// tier.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Stats holds cache counters.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config sizes the tiers. A zero DiskBytes or empty Dir disables the disk
// tier.
type Config struct {
	MemoryBytes      int64
	DiskBytes        int64
	Dir              string
	CompressionLevel int // zstd level, 0 stores raw PCM
}

// Cache is a two tier cache. Disk hits are promoted to memory.
type Cache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// New creates a cache for cfg.
func New(cfg Config) (*Cache, error) {
	c := &Cache{memory: NewMemoryCache(cfg.MemoryBytes)}
	if cfg.Dir != "" && cfg.DiskBytes > 0 {
		disk, err := NewDiskCache(cfg.Dir, cfg.DiskBytes, cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		c.disk = disk
	}
	return c, nil
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v, true
	}
	if c.disk == nil {
		return nil, false
	}
	v, ok := c.disk.Get(key)
	if ok {
		_ = c.memory.Put(key, v)
	}
	return v, ok
}

// Put stores value in every tier it fits in.
func (c *Cache) Put(key string, value []byte) error {
	memErr := c.memory.Put(key, value)
	if c.disk == nil {
		return memErr
	}
	return c.disk.Put(key, value)
}

// Stats returns the counters of the memory and disk tiers.
func (c *Cache) Stats() (memory, disk Stats) {
	memory = c.memory.Stats()
	if c.disk != nil {
		disk = c.disk.Stats()
	}
	return memory, disk
}

// Close releases the disk tier.
func (c *Cache) Close() error {
	if c.disk == nil {
		return nil
	}
	return c.disk.Close()
}

// Key derives the cache key of a render.
func Key(model, text string, lengthScale float64) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(lengthScale, 'f', 3, 64)))
	return hex.EncodeToString(h.Sum(nil))
}
