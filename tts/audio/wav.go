package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const wavHeaderSize = 44

// WAVSink creates RIFF/WAV files for synthesized PCM. Relative names are
// placed in Dir.
type WAVSink struct {
	Dir    string
	Format Format
}

// NewWAVSink creates a sink writing format into dir.
func NewWAVSink(dir string, format Format) *WAVSink {
	return &WAVSink{Dir: dir, Format: format}
}

// Path returns where a file called name is written.
func (s *WAVSink) Path(name string) string {
	if filepath.Ext(name) == "" {
		name += ".wav"
	}
	if filepath.IsAbs(name) || s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Create implements tts.FileSink.
func (s *WAVSink) Create(name string) (io.WriteCloser, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("file name is empty")
	}
	if err := s.Format.Validate(); err != nil {
		return nil, err
	}

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewWAVWriter(f, s.Format)
}

// WAVWriter encodes PCM into a WAV container. The header sizes are patched
// on Close, so the destination must be seekable.
type WAVWriter struct {
	dst    io.WriteSeeker
	closer io.Closer
	format Format
	size   int64
	closed bool
}

// NewWAVWriter writes a placeholder header to dst and returns a writer for
// the PCM data. If dst is an io.Closer it is closed by Close.
func NewWAVWriter(dst io.WriteSeeker, format Format) (*WAVWriter, error) {
	w := &WAVWriter{dst: dst, format: format}
	if c, ok := dst.(io.Closer); ok {
		w.closer = c
	}
	if err := w.writeHeader(); err != nil {
		w.closeDst()
		return nil, fmt.Errorf("writing wav header: %w", err)
	}
	return w, nil
}

// Write appends PCM data.
func (w *WAVWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	n, err := w.dst.Write(p)
	w.size += int64(n)
	return n, err
}

// Size returns the number of PCM bytes written.
func (w *WAVWriter) Size() int64 {
	return w.size
}

// Close patches the header and closes the destination.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.dst.Seek(0, io.SeekStart)
	if err == nil {
		err = w.writeHeader()
	}
	return errors.Join(err, w.closeDst())
}

func (w *WAVWriter) closeDst() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

func (w *WAVWriter) writeHeader() error {
	channels := uint16(w.format.Channels)
	blockAlign := channels * 2
	header := struct {
		RIFF          [4]byte
		ChunkSize     uint32
		WAVE          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(wavHeaderSize - 8 + w.size),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1, // PCM
		Channels:      channels,
		SampleRate:    uint32(w.format.SampleRate),
		ByteRate:      uint32(w.format.BytesPerSecond()),
		BlockAlign:    blockAlign,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(w.size),
	}
	return binary.Write(w.dst, binary.LittleEndian, &header)
}
