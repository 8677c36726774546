package piper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/lingo/internal/cache"
)

func TestCachedRenderer(t *testing.T) {
	c, err := cache.New(cache.Config{MemoryBytes: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	calls := 0
	r := CachedRenderer{
		Renderer: renderFunc(func(_ context.Context, _, text string, _ float64) ([]byte, error) {
			calls++
			return []byte(text), nil
		}),
		Cache: c,
	}

	tests := []struct {
		text  string
		scale float64
		calls int
	}{
		{text: "hello", scale: 1, calls: 1},
		{text: "hello", scale: 1, calls: 1},
		{text: "hello", scale: 0.5, calls: 2},
		{text: "world", scale: 1, calls: 3},
		{text: "hello", scale: 0.5, calls: 3},
	}
	for _, tt := range tests {
		got, err := r.Render(context.Background(), "model.onnx", tt.text, tt.scale)
		if err != nil {
			t.Fatalf("Render(%q) error = %v", tt.text, err)
		}
		if string(got) != tt.text {
			t.Errorf("Render(%q) = %q", tt.text, got)
		}
		if calls != tt.calls {
			t.Errorf("Render(%q, %v): renderer called %d times, want %d", tt.text, tt.scale, calls, tt.calls)
		}
	}
}

func TestCachedRendererFailureNotCached(t *testing.T) {
	c, err := cache.New(cache.Config{MemoryBytes: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	fail := errors.New("boom")
	calls := 0
	r := CachedRenderer{
		Renderer: renderFunc(func(context.Context, string, string, float64) ([]byte, error) {
			calls++
			return nil, fail
		}),
		Cache: c,
	}
	for range 2 {
		if _, err := r.Render(context.Background(), "m", "x", 1); !errors.Is(err, fail) {
			t.Errorf("Render() error = %v, want %v", err, fail)
		}
	}
	if calls != 2 {
		t.Errorf("renderer called %d times, want 2", calls)
	}
}

func TestFindBinary(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "piper-test")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil { //nolint:gosec
		t.Fatal(err)
	}

	if got := FindBinary(bin); got != bin {
		t.Errorf("FindBinary() = %q, want %q", got, bin)
	}
	if got := FindBinary("", filepath.Join(dir, "missing"), bin); got != bin {
		t.Errorf("FindBinary() skipping missing = %q, want %q", got, bin)
	}
}
