package audio

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeStream struct {
	mu      sync.Mutex
	playing bool
	drained bool
	volume  float64
	closed  bool
	data    []byte
}

func (s *fakeStream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
}

func (s *fakeStream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

func (s *fakeStream) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && !s.drained
}

func (s *fakeStream) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) currentVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *fakeStream) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
}

type fakeDevice struct {
	mu      sync.Mutex
	streams []*fakeStream
	err     error
}

func (d *fakeDevice) Format() Format { return DefaultFormat }

func (d *fakeDevice) NewStream(r io.Reader) (Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	data, _ := io.ReadAll(r)
	s := &fakeStream{data: data}
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDevice) last() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[len(d.streams)-1]
}

// TestFormat tests PCM duration arithmetic and validation.
func TestFormat(t *testing.T) {
	f := Format{SampleRate: 22050, Channels: 1}
	if got := f.Duration(44100); got != time.Second {
		t.Errorf("Expected 1s, got %v", got)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	tests := []Format{
		{SampleRate: 100, Channels: 1},
		{SampleRate: 22050, Channels: 3},
	}
	for _, bad := range tests {
		if err := bad.Validate(); err == nil {
			t.Errorf("Expected %+v to be invalid", bad)
		}
	}
}

// TestPlayerLifecycle tests play, pause, resume and natural completion.
func TestPlayerLifecycle(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device)
	p.poll = time.Millisecond

	finished := make(chan struct{})
	if err := p.Play(make([]byte, 4410), func() { close(finished) }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if p.State() != StatePlaying {
		t.Fatalf("Expected playing, got %s", p.State())
	}
	if p.Duration() != 100*time.Millisecond {
		t.Errorf("Expected 100ms clip, got %v", p.Duration())
	}

	if err := p.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if err := p.Pause(); err == nil {
		t.Error("Second pause should fail")
	}
	if err := p.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	device.last().drain()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Expected onFinish to run")
	}
	if p.State() != StateStopped {
		t.Errorf("Expected stopped, got %s", p.State())
	}
	if !device.last().isClosed() {
		t.Error("Expected stream to be closed")
	}
}

// TestPlayerStop tests that a stopped clip never reports completion.
func TestPlayerStop(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device)
	p.poll = time.Millisecond

	finished := make(chan struct{}, 1)
	_ = p.Play([]byte{0, 0, 0, 0}, func() { finished <- struct{}{} })
	p.Stop()
	device.last().drain()

	select {
	case <-finished:
		t.Fatal("Stopped clip should not finish")
	case <-time.After(20 * time.Millisecond):
	}
	if p.Position() != 0 {
		t.Errorf("Expected zero position, got %v", p.Position())
	}
}

// TestPlayerErrors tests rejected input.
func TestPlayerErrors(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device)

	if err := p.Play(nil, nil); err == nil {
		t.Error("Expected error for empty audio")
	}
	if err := p.Resume(); err == nil {
		t.Error("Expected error resuming a stopped player")
	}
	if err := p.SetVolume(1.5); err == nil {
		t.Error("Expected error for volume 1.5")
	}

	device.err = errors.New("no device")
	if err := p.Play([]byte{1, 2}, nil); err == nil {
		t.Error("Expected device error")
	}

	_ = p.Close()
	device.err = nil
	if err := p.Play([]byte{1, 2}, nil); err == nil {
		t.Error("Expected error playing on a closed player")
	}
}

// TestPlayerVolume tests that volume applies to new and live streams.
func TestPlayerVolume(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device)

	_ = p.SetVolume(0.25)
	_ = p.Play([]byte{1, 2}, nil)
	if v := device.last().currentVolume(); v != 0.25 {
		t.Errorf("Expected volume 0.25, got %f", v)
	}
	_ = p.SetVolume(0.75)
	if v := device.last().currentVolume(); v != 0.75 {
		t.Errorf("Expected volume 0.75, got %f", v)
	}
	p.Stop()
}
