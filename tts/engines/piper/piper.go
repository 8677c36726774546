// Package piper provides the speech platform backed by the Piper TTS
// binary. Each installed voice model is one voice; rendering runs a fresh
// piper process per utterance.
package piper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/dgnsrekt/lingo/tts/audio"
)

const (
	chunkSize    = 4096
	progressTick = 20 * time.Millisecond
)

// ErrModelNotFound is returned when an utterance names an unknown voice.
var ErrModelNotFound = errors.New("piper model not found")

// Option configures a Platform.
type Option func(*Platform)

// WithRenderer replaces the piper subprocess.
func WithRenderer(r Renderer) Option {
	return func(p *Platform) { p.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Platform) { p.logger = l }
}

// Platform is a tts.Platform over the models in a directory.
type Platform struct {
	cfg      tts.PiperConfig
	device   audio.Device
	renderer Renderer
	logger   *log.Logger

	mu     sync.Mutex
	models map[string]Model // By voice identifier
}

// New creates a piper platform playing through device.
func New(cfg tts.PiperConfig, device audio.Device, opts ...Option) *Platform {
	p := &Platform{
		cfg:      cfg,
		device:   device,
		renderer: Command{Binary: cfg.Binary},
		logger:   log.New(io.Discard),
		models:   make(map[string]Model),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements tts.Platform.
func (p *Platform) Name() string { return "piper" }

// RateRange implements tts.Platform. Rate maps to piper's length scale,
// with Normal speaking at the model's natural speed.
func (p *Platform) RateRange() tts.RateRange {
	return tts.RateRange{Min: 0, Normal: 0.5, Max: 1.0, Platform: "piper"}
}

// Voices implements tts.Platform. Models rendering at a sample rate other
// than the output's are skipped.
func (p *Platform) Voices() ([]tts.Voice, error) {
	models, errs := ScanModels(p.cfg.ModelDir)
	for _, err := range errs {
		p.logger.Warn("skipping piper model", "err", err)
	}
	if len(models) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("no usable piper models in %s: %w", p.cfg.ModelDir, errors.Join(errs...))
	}

	rate := p.device.Format().SampleRate
	p.mu.Lock()
	defer p.mu.Unlock()

	voices := make([]tts.Voice, 0, len(models))
	for _, m := range models {
		if m.SampleRate != 0 && m.SampleRate != rate {
			p.logger.Warn("skipping piper model with mismatched sample rate",
				"model", m.Voice.Identifier, "sample_rate", m.SampleRate, "output", rate)
			continue
		}
		p.models[m.Voice.Identifier] = m
		voices = append(voices, m.Voice)
	}
	return voices, nil
}

func (p *Platform) model(v tts.Voice) (Model, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.models[v.Identifier]
	return m, ok
}

// lengthScale converts a rate into piper's length scale.
func (p *Platform) lengthScale(rate float64) float64 {
	r := p.RateRange()
	if math.IsNaN(rate) {
		rate = r.Normal
	}
	rate = max(rate, 0.1)
	return r.Normal / rate
}

// NewSynthesizer implements tts.Platform.
func (p *Platform) NewSynthesizer(key tts.LanguageKey, sink tts.EventSink) (tts.Synthesizer, error) {
	return &Synthesizer{
		platform: p,
		key:      key,
		sink:     sink,
		player:   audio.NewPlayer(p.device),
		writes:   make(map[string]context.CancelFunc),
	}, nil
}

type liveUtterance struct {
	u      tts.Utterance
	cancel context.CancelFunc
	words  [][2]int
	next   int // Next word to report
	ready  bool
	paused bool
	wait   bool // Pause at the next word boundary
}

// Synthesizer renders and plays utterances for one language.
type Synthesizer struct {
	platform *Platform
	key      tts.LanguageKey
	sink     tts.EventSink
	player   *audio.Player

	mu     sync.Mutex
	live   *liveUtterance
	writes map[string]context.CancelFunc
}

func (s *Synthesizer) render(ctx context.Context, u tts.Utterance) ([]byte, error) {
	m, ok := s.platform.model(u.Voice)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, u.Voice.Identifier)
	}
	if s.platform.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.platform.cfg.Timeout)
		defer cancel()
	}
	return s.platform.renderer.Render(ctx, m.Path, u.Text, s.platform.lengthScale(u.Rate))
}

// Speak implements tts.Synthesizer.
func (s *Synthesizer) Speak(u tts.Utterance) error {
	if _, ok := s.platform.model(u.Voice); !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, u.Voice.Identifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLiveLocked()

	ctx, cancel := context.WithCancel(context.Background())
	live := &liveUtterance{u: u, cancel: cancel, words: tts.WordRanges(u.Text)}
	s.live = live
	go s.speak(ctx, live)
	return nil
}

func (s *Synthesizer) speak(ctx context.Context, live *liveUtterance) {
	pcm, err := s.render(ctx, live.u)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != live {
		return
	}
	if err != nil {
		s.platform.logger.Error("piper render failed", "language", s.key, "utterance", live.u.ID, "err", err)
		s.endLiveLocked(tts.EventCancel)
		return
	}

	_ = s.player.SetVolume(live.u.Volume)
	if err := s.player.Play(pcm, func() { s.finished(live) }); err != nil {
		s.platform.logger.Error("playback failed", "language", s.key, "utterance", live.u.ID, "err", err)
		s.endLiveLocked(tts.EventCancel)
		return
	}
	live.ready = true
	s.sink(tts.Event{Kind: tts.EventStart, Utterance: live.u.ID})
	if live.paused {
		_ = s.player.Pause()
		s.sink(tts.Event{Kind: tts.EventPause, Utterance: live.u.ID})
	}
	go s.progress(ctx, live)
}

// progress reports words as playback reaches them. Word timing is
// estimated from the word's offset into the text.
func (s *Synthesizer) progress(ctx context.Context, live *liveUtterance) {
	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.live != live {
			s.mu.Unlock()
			return
		}
		s.reportWordsLocked(live)
		s.mu.Unlock()
	}
}

func (s *Synthesizer) reportWordsLocked(live *liveUtterance) {
	duration := s.player.Duration()
	if duration <= 0 || live.paused {
		return
	}
	played := float64(s.player.Position()) / float64(duration)
	textLen := float64(len(live.u.Text))

	for live.next < len(live.words) {
		w := live.words[live.next]
		if float64(w[0])/textLen > played {
			return
		}
		if live.wait && live.next > 0 {
			live.wait = false
			live.paused = true
			_ = s.player.Pause()
			s.sink(tts.Event{Kind: tts.EventPause, Utterance: live.u.ID})
			return
		}
		live.next++
		s.sink(tts.Event{Kind: tts.EventRange, Utterance: live.u.ID, Start: w[0], End: w[1]})
	}
}

func (s *Synthesizer) finished(live *liveUtterance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != live {
		return
	}
	for live.next < len(live.words) {
		w := live.words[live.next]
		live.next++
		s.sink(tts.Event{Kind: tts.EventRange, Utterance: live.u.ID, Start: w[0], End: w[1]})
	}
	s.endLiveLocked(tts.EventFinish)
}

func (s *Synthesizer) endLiveLocked(kind tts.EventKind) {
	live := s.live
	s.live = nil
	live.cancel()
	s.sink(tts.Event{Kind: kind, Utterance: live.u.ID})
}

func (s *Synthesizer) cancelLiveLocked() {
	if s.live == nil {
		return
	}
	s.player.Stop()
	s.endLiveLocked(tts.EventCancel)
}

// Write implements tts.Synthesizer.
func (s *Synthesizer) Write(u tts.Utterance) error {
	if _, ok := s.platform.model(u.Voice); !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, u.Voice.Identifier)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.writes[u.ID] = cancel
	s.mu.Unlock()

	go s.write(ctx, u)
	return nil
}

func (s *Synthesizer) write(ctx context.Context, u tts.Utterance) {
	pcm, err := s.render(ctx, u)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.writes[u.ID]
	if !ok {
		return
	}
	delete(s.writes, u.ID)
	cancel()

	if err != nil {
		s.platform.logger.Error("piper render failed", "language", s.key, "utterance", u.ID, "err", err)
		s.sink(tts.Event{Kind: tts.EventCancel, Utterance: u.ID})
		return
	}
	for len(pcm) > 0 {
		n := min(chunkSize, len(pcm))
		s.sink(tts.Event{Kind: tts.EventBuffer, Utterance: u.ID, Buffer: pcm[:n]})
		pcm = pcm[n:]
	}
	s.sink(tts.Event{Kind: tts.EventBuffer, Utterance: u.ID})
	s.sink(tts.Event{Kind: tts.EventFinish, Utterance: u.ID})
}

// Pause implements tts.Synthesizer.
func (s *Synthesizer) Pause(boundary tts.PauseBoundary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.live
	if live == nil {
		return false
	}
	if live.paused || live.wait {
		return true
	}
	if boundary == tts.PauseWord && live.ready {
		live.wait = true
		return true
	}

	// Still rendering; the pause is applied once playback starts.
	if !live.ready {
		live.paused = true
		return true
	}
	if err := s.player.Pause(); err != nil {
		return false
	}
	live.paused = true
	s.sink(tts.Event{Kind: tts.EventPause, Utterance: live.u.ID})
	return true
}

// Continue implements tts.Synthesizer.
func (s *Synthesizer) Continue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.live
	if live == nil {
		return false
	}
	if live.wait {
		live.wait = false
		return true
	}
	if !live.paused {
		return false
	}
	if !live.ready {
		live.paused = false
		return true
	}
	if err := s.player.Resume(); err != nil {
		return false
	}
	live.paused = false
	s.sink(tts.Event{Kind: tts.EventContinue, Utterance: live.u.ID})
	return true
}

// Stop implements tts.Synthesizer.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLiveLocked()
	for id, cancel := range s.writes {
		cancel()
		delete(s.writes, id)
		s.sink(tts.Event{Kind: tts.EventCancel, Utterance: id})
	}
}
