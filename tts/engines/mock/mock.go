// Package mock provides a simulated speech platform for testing and demos.
//
// Synthesizers either play utterances on a word timer (auto-play) or wait
// for a test to drive their events by hand.
package mock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/lingo/tts"
)

// Option configures a Platform.
type Option func(*Platform)

// WithVoices sets the voices the platform exposes.
func WithVoices(voices ...tts.Voice) Option {
	return func(p *Platform) { p.voices = voices }
}

// WithAutoPlay makes synthesizers play utterances on their own.
func WithAutoPlay(auto bool) Option {
	return func(p *Platform) { p.autoPlay = auto }
}

// WithWordsPerMinute sets the auto-play speaking speed at rate 1.0.
func WithWordsPerMinute(wpm int) Option {
	return func(p *Platform) {
		if wpm > 0 {
			p.wpm = wpm
		}
	}
}

// WithRateRange sets the reported rate range.
func WithRateRange(r tts.RateRange) Option {
	return func(p *Platform) { p.rateRange = r }
}

// Platform is a simulated tts.Platform.
type Platform struct {
	mu        sync.Mutex
	voices    []tts.Voice
	voicesErr error
	createErr map[tts.LanguageKey]error
	autoPlay  bool
	wpm       int
	rateRange tts.RateRange
	synths    map[tts.LanguageKey]*Synthesizer
	created   int
}

// DefaultVoices returns a small multi-language voice set.
func DefaultVoices() []tts.Voice {
	female, male := "female", "male"
	return []tts.Voice{
		{Name: "Alice", Locale: "en-US", Quality: "default", Gender: &female, Identifier: "mock.en-US.alice"},
		{Name: "Arthur", Locale: "en-GB", Quality: "enhanced", Gender: &male, Identifier: "mock.en-GB.arthur"},
		{Name: "Amelie", Locale: "fr-FR", Quality: "default", Gender: &female, Identifier: "mock.fr-FR.amelie"},
		{Name: "Anna", Locale: "de-DE", Quality: "default", Identifier: "mock.de-DE.anna"},
	}
}

// New creates a mock platform. Without options it exposes DefaultVoices and
// drives events by hand.
func New(opts ...Option) *Platform {
	p := &Platform{
		voices:    DefaultVoices(),
		createErr: make(map[tts.LanguageKey]error),
		wpm:       180,
		rateRange: tts.RateRange{Min: 0, Normal: 0.5, Max: 1.0, Platform: "mock"},
		synths:    make(map[tts.LanguageKey]*Synthesizer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements tts.Platform.
func (p *Platform) Name() string { return "mock" }

// Voices implements tts.Platform.
func (p *Platform) Voices() ([]tts.Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.voicesErr != nil {
		return nil, p.voicesErr
	}
	return append([]tts.Voice(nil), p.voices...), nil
}

// RateRange implements tts.Platform.
func (p *Platform) RateRange() tts.RateRange { return p.rateRange }

// NewSynthesizer implements tts.Platform.
func (p *Platform) NewSynthesizer(key tts.LanguageKey, sink tts.EventSink) (tts.Synthesizer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.createErr[key]; err != nil {
		return nil, err
	}

	s := &Synthesizer{
		key:      key,
		sink:     sink,
		autoPlay: p.autoPlay,
		word:     time.Minute / time.Duration(p.wpm),
		normal:   p.rateRange.Normal,
		writes:   make(map[string]tts.Utterance),
	}
	s.cond = sync.NewCond(&s.mu)
	p.synths[key] = s
	p.created++
	return s, nil
}

// SetVoices replaces the exposed voices.
func (p *Platform) SetVoices(voices ...tts.Voice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voices = voices
	p.voicesErr = nil
}

// FailVoices makes voice enumeration fail with err.
func (p *Platform) FailVoices(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voicesErr = err
}

// FailCreate makes synthesizer creation for key fail with err.
func (p *Platform) FailCreate(key tts.LanguageKey, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createErr[key] = err
}

// Synthesizer returns the synthesizer created for key.
func (p *Platform) Synthesizer(key tts.LanguageKey) (*Synthesizer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.synths[key]
	return s, ok
}

// Created returns how many synthesizers have been created.
func (p *Platform) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// ErrNotSpeaking is returned by the manual controls when nothing is live.
var ErrNotSpeaking = errors.New("mock: no live utterance")

// Synthesizer is a simulated tts.Synthesizer. Every event is emitted while
// its lock is held, so events for one utterance keep their order.
type Synthesizer struct {
	key      tts.LanguageKey
	sink     tts.EventSink
	autoPlay bool
	word     time.Duration
	normal   float64

	mu     sync.Mutex
	cond   *sync.Cond
	live   *tts.Utterance
	paused bool
	gen    int
	writes map[string]tts.Utterance
	spoken []tts.Utterance

	failSpeak    error
	failPause    bool
	failContinue bool

	speakCalls    int
	pauseCalls    int
	continueCalls int
	stopCalls     int
}

// Speak implements tts.Synthesizer.
func (s *Synthesizer) Speak(u tts.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakCalls++
	if s.failSpeak != nil {
		return s.failSpeak
	}
	s.cancelLiveLocked()

	s.live = &u
	s.paused = false
	s.gen++
	s.spoken = append(s.spoken, u)
	s.sink(tts.Event{Kind: tts.EventStart, Utterance: u.ID})

	if s.autoPlay {
		go s.play(u, s.gen)
	}
	return nil
}

// Write implements tts.Synthesizer.
func (s *Synthesizer) Write(u tts.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSpeak != nil {
		return s.failSpeak
	}
	s.writes[u.ID] = u
	if s.autoPlay {
		go s.render(u)
	}
	return nil
}

// Pause implements tts.Synthesizer.
func (s *Synthesizer) Pause(tts.PauseBoundary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseCalls++
	if s.failPause || s.live == nil {
		return false
	}
	if !s.paused {
		s.paused = true
		s.sink(tts.Event{Kind: tts.EventPause, Utterance: s.live.ID})
	}
	return true
}

// Continue implements tts.Synthesizer.
func (s *Synthesizer) Continue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.continueCalls++
	if s.failContinue || s.live == nil || !s.paused {
		return false
	}
	s.paused = false
	s.cond.Broadcast()
	s.sink(tts.Event{Kind: tts.EventContinue, Utterance: s.live.ID})
	return true
}

// Stop implements tts.Synthesizer.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	s.cancelLiveLocked()
	for id := range s.writes {
		delete(s.writes, id)
		s.sink(tts.Event{Kind: tts.EventCancel, Utterance: id})
	}
}

func (s *Synthesizer) cancelLiveLocked() {
	if s.live == nil {
		return
	}
	id := s.live.ID
	s.live = nil
	s.paused = false
	s.gen++
	s.cond.Broadcast()
	s.sink(tts.Event{Kind: tts.EventCancel, Utterance: id})
}

// wordDuration scales the word interval by the utterance rate.
func (s *Synthesizer) wordDuration(rate float64) time.Duration {
	if rate <= 0 || s.normal <= 0 {
		return s.word
	}
	return time.Duration(float64(s.word) * s.normal / rate)
}

func (s *Synthesizer) play(u tts.Utterance, gen int) {
	interval := s.wordDuration(u.Rate)
	for _, r := range tts.WordRanges(u.Text) {
		s.mu.Lock()
		for s.paused && s.gen == gen {
			s.cond.Wait()
		}
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.sink(tts.Event{Kind: tts.EventRange, Utterance: u.ID, Start: r[0], End: r[1]})
		s.mu.Unlock()

		time.Sleep(interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.paused && s.gen == gen {
		s.cond.Wait()
	}
	if s.gen != gen {
		return
	}
	s.live = nil
	s.gen++
	s.sink(tts.Event{Kind: tts.EventFinish, Utterance: u.ID})
}

// render emits silence for the utterance in one buffer per word.
func (s *Synthesizer) render(u tts.Utterance) {
	const bytesPerWord = 2 * 22050 / 4
	for range tts.WordRanges(u.Text) {
		s.mu.Lock()
		if _, ok := s.writes[u.ID]; !ok {
			s.mu.Unlock()
			return
		}
		s.sink(tts.Event{Kind: tts.EventBuffer, Utterance: u.ID, Buffer: make([]byte, bytesPerWord)})
		s.mu.Unlock()
	}
	_ = s.FinishWrite(u.ID)
}

// Manual controls.

// Emit reports ev as if the platform produced it.
func (s *Synthesizer) Emit(ev tts.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink(ev)
}

// Range reports progress through the live utterance.
func (s *Synthesizer) Range(start, end int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return ErrNotSpeaking
	}
	s.sink(tts.Event{Kind: tts.EventRange, Utterance: s.live.ID, Start: start, End: end})
	return nil
}

// Finish completes the live utterance.
func (s *Synthesizer) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return ErrNotSpeaking
	}
	id := s.live.ID
	s.live = nil
	s.paused = false
	s.gen++
	s.cond.Broadcast()
	s.sink(tts.Event{Kind: tts.EventFinish, Utterance: id})
	return nil
}

// EmitBuffer reports a rendered buffer for the write of utterance id.
func (s *Synthesizer) EmitBuffer(id string, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.writes[id]; !ok {
		return fmt.Errorf("mock: no write for utterance %q", id)
	}
	s.sink(tts.Event{Kind: tts.EventBuffer, Utterance: id, Buffer: buf})
	return nil
}

// FinishWrite ends the write of utterance id with an end-of-stream buffer
// followed by EventFinish.
func (s *Synthesizer) FinishWrite(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.writes[id]; !ok {
		return fmt.Errorf("mock: no write for utterance %q", id)
	}
	delete(s.writes, id)
	s.sink(tts.Event{Kind: tts.EventBuffer, Utterance: id})
	s.sink(tts.Event{Kind: tts.EventFinish, Utterance: id})
	return nil
}

// FailSpeak makes Speak and Write fail with err. A nil err clears it.
func (s *Synthesizer) FailSpeak(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSpeak = err
}

// FailPause makes Pause decline.
func (s *Synthesizer) FailPause(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPause = fail
}

// FailContinue makes Continue decline.
func (s *Synthesizer) FailContinue(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failContinue = fail
}

// Live returns the live utterance.
func (s *Synthesizer) Live() (tts.Utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return tts.Utterance{}, false
	}
	return *s.live, true
}

// Paused reports whether live output is paused.
func (s *Synthesizer) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Writes returns the IDs of writes still in flight.
func (s *Synthesizer) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.writes))
	for id := range s.writes {
		ids = append(ids, id)
	}
	return ids
}

// Spoken returns every utterance passed to Speak.
func (s *Synthesizer) Spoken() []tts.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tts.Utterance(nil), s.spoken...)
}

// Calls returns how often Speak, Pause, Continue and Stop were called.
func (s *Synthesizer) Calls() (speak, pause, cont, stop int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakCalls, s.pauseCalls, s.continueCalls, s.stopCalls
}
