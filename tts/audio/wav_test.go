package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// TestWAVSink tests that a written file carries a patched header.
func TestWAVSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewWAVSink(dir, DefaultFormat)

	w, err := sink.Create("hello")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pcm := bytes.Repeat([]byte{1, 0}, 100)
	if _, err := w.Write(pcm); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hello.wav"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != wavHeaderSize+len(pcm) {
		t.Fatalf("Expected %d bytes, got %d", wavHeaderSize+len(pcm), len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Error("Missing RIFF/WAVE markers")
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); size != uint32(len(pcm)) {
		t.Errorf("Expected data size %d, got %d", len(pcm), size)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", rate)
	}
}

// TestWAVSinkPath tests output path resolution.
func TestWAVSinkPath(t *testing.T) {
	sink := NewWAVSink("/out", DefaultFormat)
	tests := []struct {
		name string
		want string
	}{
		{"a", filepath.Join("/out", "a.wav")},
		{"b.wav", filepath.Join("/out", "b.wav")},
		{"/abs/c.wav", "/abs/c.wav"},
	}
	for _, tt := range tests {
		if got := sink.Path(tt.name); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// TestWAVWriterClosed tests writes after Close.
func TestWAVWriterClosed(t *testing.T) {
	sink := NewWAVSink(t.TempDir(), DefaultFormat)
	if _, err := sink.Create("  "); err == nil {
		t.Error("Expected error for empty name")
	}

	w, err := sink.Create("x")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_ = w.Close()
	if _, err := w.Write([]byte{1}); err == nil {
		t.Error("Expected write after close to fail")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
}
