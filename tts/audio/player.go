package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
)

// PlayerState represents the current state of the player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

// String returns the string representation of the state.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Player plays one PCM clip at a time on a Device and tracks its position.
type Player struct {
	device Device
	poll   time.Duration

	mu     sync.Mutex
	state  PlayerState
	stream Stream
	data   []byte // Kept alive while the stream reads it
	gen    int
	volume float64

	duration   time.Duration
	startTime  time.Time
	pausedAt   time.Duration
	totalPause time.Duration
}

// NewPlayer creates a player on device.
func NewPlayer(device Device) *Player {
	return &Player{
		device: device,
		poll:   10 * time.Millisecond,
		volume: 1.0,
	}
}

// Play starts playback of pcm, stopping any current clip. onFinish runs
// on a player goroutine once the clip plays to its end; it does not run
// when the clip is stopped.
func (p *Player) Play(pcm []byte, onFinish func()) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return errors.New("player is closed")
	}
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	stream, err := p.device.NewStream(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	stream.SetVolume(p.volume)

	p.gen++
	p.stream = stream
	p.data = data
	p.duration = p.device.Format().Duration(len(data))
	p.startTime = time.Now()
	p.pausedAt = 0
	p.totalPause = 0
	p.state = StatePlaying

	stream.Play()
	go p.monitor(p.gen, onFinish)
	return nil
}

// monitor waits for the clip of generation gen to drain.
func (p *Player) monitor(gen int, onFinish func()) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.gen != gen || p.state == StateStopped || p.state == StateClosed {
			p.mu.Unlock()
			return
		}
		if p.state == StatePaused || p.stream.IsPlaying() {
			p.mu.Unlock()
			continue
		}

		p.releaseLocked()
		p.state = StateStopped
		p.mu.Unlock()

		if onFinish != nil {
			onFinish()
		}
		return
	}
}

// Pause pauses the current playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", p.state)
	}
	p.pausedAt = p.positionLocked()
	p.stream.Pause()
	p.state = StatePaused
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", p.state)
	}
	p.totalPause += time.Since(p.startTime.Add(p.pausedAt + p.totalPause))
	p.stream.Play()
	p.state = StatePlaying
	return nil
}

// Stop discards the current clip.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.state != StatePlaying && p.state != StatePaused {
		return
	}
	p.gen++
	p.stream.Pause()
	p.releaseLocked()
	p.state = StateStopped
}

func (p *Player) releaseLocked() {
	if p.stream != nil {
		_ = p.stream.Close()
		p.stream = nil
	}
	p.data = nil
	p.pausedAt = 0
	p.totalPause = 0
}

// Position returns how far the current clip has played.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	switch p.state {
	case StatePlaying:
		elapsed := time.Since(p.startTime) - p.totalPause
		return min(elapsed, p.duration)
	case StatePaused:
		return p.pausedAt
	default:
		return 0
	}
}

// Duration returns the length of the current clip.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	if p.stream != nil {
		p.stream.SetVolume(volume)
	}
	return nil
}

// Close stops playback. A closed player cannot play again.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state = StateClosed
	return nil
}
