package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	rawExt        = ".pcm"
	compressedExt = ".pcm.zst"

	// Values smaller than this are stored raw.
	minCompressSize = 1024
)

// DiskCache stores values as files in a directory, evicting the least
// recently used once capacity is reached. The index is rebuilt from the
// directory on open, so it survives restarts.
type DiskCache struct {
	basePath string
	capacity int64 // Maximum size on disk in bytes
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry
	seq   uint64 // orders entries touched within one clock tick

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	path       string
	size       int64 // Size on disk
	compressed bool
	lastAccess time.Time
	seq        uint64
}

// NewDiskCache opens a disk cache in basePath. A compressionLevel above
// zero compresses values with zstd.
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: capacity},
	}

	if compressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// Entries written compressed stay readable with compression turned off.
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	dc.decoder = decoder

	if err := dc.loadIndex(); err != nil {
		return nil, err
	}
	return dc, nil
}

func (dc *DiskCache) loadIndex() error {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var key string
		var compressed bool
		switch {
		case strings.HasSuffix(name, compressedExt):
			key, compressed = strings.TrimSuffix(name, compressedExt), true
		case strings.HasSuffix(name, rawExt):
			key = strings.TrimSuffix(name, rawExt)
		default:
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dc.index[key] = &diskEntry{
			path:       filepath.Join(dc.basePath, name),
			size:       info.Size(),
			compressed: compressed,
			lastAccess: info.ModTime(),
		}
		dc.size += info.Size()
	}
	return nil
}

// Get retrieves a value from disk.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(entry.path)
	if err == nil && entry.compressed {
		data, err = dc.decoder.DecodeAll(data, nil)
	}
	if err != nil {
		// Missing or corrupted.
		dc.removeLocked(key, entry)
		dc.stats.Misses++
		return nil, false
	}

	dc.seq++
	entry.lastAccess, entry.seq = time.Now(), dc.seq
	_ = os.Chtimes(entry.path, entry.lastAccess, entry.lastAccess)
	dc.stats.Hits++
	return data, true
}

// Put writes a value to disk.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data, compressed := value, false
	if dc.encoder != nil && len(value) > minCompressSize {
		if packed := dc.encoder.EncodeAll(value, nil); len(packed) < len(value) {
			data, compressed = packed, true
		}
	}

	diskSize := int64(len(data))
	if diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.removeLocked(key, existing)
	}
	for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}

	ext := rawExt
	if compressed {
		ext = compressedExt
	}
	path := filepath.Join(dc.basePath, key+ext)
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.seq++
	dc.index[key] = &diskEntry{path: path, size: diskSize, compressed: compressed, lastAccess: time.Now(), seq: dc.seq}
	dc.size += diskSize
	return nil
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.Items = int64(len(dc.index))
	return stats
}

// Close releases the codecs.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	dc.decoder.Close()
	return nil
}

func (dc *DiskCache) evictOldestLocked() {
	var (
		oldestKey string
		oldest    *diskEntry
	)
	for key, entry := range dc.index {
		if oldest == nil || entry.older(oldest) {
			oldestKey, oldest = key, entry
		}
	}
	if oldest != nil {
		dc.removeLocked(oldestKey, oldest)
		dc.stats.Evictions++
	}
}

func (e *diskEntry) older(than *diskEntry) bool {
	if !e.lastAccess.Equal(than.lastAccess) {
		return e.lastAccess.Before(than.lastAccess)
	}
	return e.seq < than.seq
}

func (dc *DiskCache) removeLocked(key string, entry *diskEntry) {
	_ = os.Remove(entry.path)
	delete(dc.index, key)
	dc.size -= entry.size
}

// writeFile writes through a temporary file so readers never see a partial
// entry.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec
		return err
	}
	return os.Rename(tmp, path)
}
