package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemoryCacheLRU(t *testing.T) {
	c := NewMemoryCache(10)

	if err := c.Put("a", []byte("aaaa")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("b", []byte("bbbb")); err != nil {
		t.Fatal(err)
	}
	// Touch a so b is the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	if err := c.Put("c", []byte("cccc")); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should be cached", key)
		}
	}

	stats := c.Stats()
	if stats.Size != 8 || stats.Items != 2 || stats.Evictions != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Hits != 3 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 3/1", stats.Hits, stats.Misses)
	}
}

func TestMemoryCacheReplace(t *testing.T) {
	c := NewMemoryCache(10)
	_ = c.Put("a", []byte("aaaa"))
	_ = c.Put("a", []byte("aaaaaaaa"))

	v, ok := c.Get("a")
	if !ok || string(v) != "aaaaaaaa" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if got := c.Stats().Size; got != 8 {
		t.Errorf("Size = %d, want 8", got)
	}

	c.Delete("a")
	if got := c.Stats().Size; got != 0 {
		t.Errorf("Size after delete = %d, want 0", got)
	}
}

func TestMemoryCacheTooLarge(t *testing.T) {
	c := NewMemoryCache(4)
	if err := c.Put("a", []byte("too large")); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put() error = %v, want ErrItemTooLarge", err)
	}
}

func TestDiskCache(t *testing.T) {
	tests := []struct {
		name  string
		level int
		ext   string
	}{
		{name: "raw", level: 0, ext: rawExt},
		{name: "compressed", level: 3, ext: compressedExt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			dc, err := NewDiskCache(dir, 1<<20, tt.level)
			if err != nil {
				t.Fatalf("NewDiskCache() error = %v", err)
			}

			// Silence compresses well.
			pcm := make([]byte, 8192)
			if err := dc.Put("key", pcm); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if _, err := os.Stat(filepath.Join(dir, "key"+tt.ext)); err != nil {
				t.Errorf("entry file missing: %v", err)
			}

			got, ok := dc.Get("key")
			if !ok || !bytes.Equal(got, pcm) {
				t.Fatalf("Get() = %d bytes, %v", len(got), ok)
			}
			_ = dc.Close()

			// The index is rebuilt from the directory.
			reopened, err := NewDiskCache(dir, 1<<20, 0)
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			defer func() { _ = reopened.Close() }()
			got, ok = reopened.Get("key")
			if !ok || !bytes.Equal(got, pcm) {
				t.Errorf("Get() after reopen = %d bytes, %v", len(got), ok)
			}
		})
	}
}

func TestDiskCacheEviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = dc.Close() }()

	_ = dc.Put("a", []byte("aaaa"))
	_ = dc.Put("b", []byte("bbbb"))
	_ = dc.Put("c", []byte("cccc"))

	if _, ok := dc.Get("a"); ok {
		t.Error("a should have been evicted")
	}
	stats := dc.Stats()
	if stats.Items != 2 || stats.Size != 8 || stats.Evictions != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDiskCacheCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad"+compressedExt), []byte("not zstd"), 0o600); err != nil {
		t.Fatal(err)
	}
	dc, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = dc.Close() }()

	if _, ok := dc.Get("bad"); ok {
		t.Error("corrupt entry should miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad"+compressedExt)); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestCachePromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Config{MemoryBytes: 1 << 10, DiskBytes: 1 << 20, Dir: dir, CompressionLevel: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", []byte("value")); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c, err = New(Config{MemoryBytes: 1 << 10, DiskBytes: 1 << 20, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	if v, ok := c.Get("k"); !ok || string(v) != "value" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}
	memory, disk := c.Stats()
	if memory.Items != 1 {
		t.Errorf("disk hit should be promoted, memory stats = %+v", memory)
	}
	if disk.Hits != 1 {
		t.Errorf("disk stats = %+v", disk)
	}

	if _, ok := c.Get("k"); !ok {
		t.Fatal("second Get should hit")
	}
	if _, disk = c.Stats(); disk.Hits != 1 {
		t.Error("second Get should be served from memory")
	}
}

func TestMemoryOnlyCache(t *testing.T) {
	c, err := New(Config{MemoryBytes: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", []byte("too large")); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put() error = %v, want ErrItemTooLarge", err)
	}
	if _, disk := c.Stats(); disk != (Stats{}) {
		t.Errorf("disk stats = %+v, want zero", disk)
	}
}

func TestKey(t *testing.T) {
	a := Key("model.onnx", "hello", 1.0)
	if len(a) != 64 || strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("Key() = %q, want a hex digest", a)
	}
	if a != Key("model.onnx", "hello", 1.0) {
		t.Error("Key() should be stable")
	}
	for _, other := range []string{
		Key("other.onnx", "hello", 1.0),
		Key("model.onnx", "hello!", 1.0),
		Key("model.onnx", "hello", 1.5),
		Key("model.onnxhello", "", 1.0),
	} {
		if other == a {
			t.Error("different renders should have different keys")
		}
	}
}
