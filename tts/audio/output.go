// Package audio provides PCM playback, the audio session and the WAV file
// sink used by the speech platforms.
package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Format describes 16-bit little endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is the format piper voices render in.
var DefaultFormat = Format{SampleRate: 22050, Channels: 1}

// BytesPerSecond returns the PCM byte rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns how long n bytes of PCM play.
func (f Format) Duration(n int) time.Duration {
	if f.BytesPerSecond() == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.BytesPerSecond())
}

// Validate checks that oto can open the format.
func (f Format) Validate() error {
	if f.SampleRate < 8000 || f.SampleRate > 96000 {
		return fmt.Errorf("sample rate must be between 8000 and 96000 Hz, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	return nil
}

// Stream is one playing PCM source.
type Stream interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Close() error
}

// Device opens streams on an audio output.
type Device interface {
	Format() Format
	NewStream(r io.Reader) (Stream, error)
}

// ErrOutputTimeout is returned when the audio device does not become ready.
var ErrOutputTimeout = errors.New("audio output was not ready in time")

// Output is the process wide oto output. oto allows a single context per
// process, so it is opened once, on first use.
type Output struct {
	format  Format
	timeout time.Duration

	once sync.Once
	ctx  *oto.Context
	err  error
}

// NewOutput creates an output for format. Nothing is opened until Open.
func NewOutput(format Format) *Output {
	return &Output{format: format, timeout: 5 * time.Second}
}

// Format implements Device.
func (o *Output) Format() Format {
	return o.format
}

// Open opens the audio device, waiting until it is ready.
func (o *Output) Open() error {
	o.once.Do(func() {
		if err := o.format.Validate(); err != nil {
			o.err = fmt.Errorf("invalid audio format: %w", err)
			return
		}

		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   o.format.SampleRate,
			ChannelCount: o.format.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			o.err = fmt.Errorf("failed to create audio context: %w", err)
			return
		}

		select {
		case <-ready:
			o.ctx = ctx
			log.Debug("audio output ready", "sample_rate", o.format.SampleRate, "channels", o.format.Channels)
		case <-time.After(o.timeout):
			o.err = ErrOutputTimeout
		}
	})
	return o.err
}

// NewStream implements Device.
func (o *Output) NewStream(r io.Reader) (Stream, error) {
	if err := o.Open(); err != nil {
		return nil, err
	}
	return o.ctx.NewPlayer(r), nil
}
