package audio

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dgnsrekt/lingo/tts"
)

// ErrInputUnsupported is returned for categories that need a microphone.
var ErrInputUnsupported = errors.New("audio input is not supported")

// Session is the tts.AudioSession for the local output. It records the
// configured category and opens the output device on activation.
type Session struct {
	output interface{ Open() error }

	mu       sync.Mutex
	category tts.AudioCategory
	options  []tts.CategoryOption
	mode     tts.AudioMode
	active   bool
}

// NewSession creates a session over output. A nil output makes activation
// pure bookkeeping.
func NewSession(output *Output) *Session {
	s := &Session{category: tts.CategoryPlayback, mode: tts.ModeDefault}
	if output != nil {
		s.output = output
	}
	return s
}

// Configure implements tts.AudioSession.
func (s *Session) Configure(category tts.AudioCategory, options []tts.CategoryOption, mode tts.AudioMode) error {
	if category == tts.CategoryRecord {
		return fmt.Errorf("category %s: %w", category, ErrInputUnsupported)
	}
	if slices.Contains(options, tts.OptionDefaultToSpeaker) && category != tts.CategoryPlayAndRecord {
		return fmt.Errorf("option %s requires category %s", tts.OptionDefaultToSpeaker, tts.CategoryPlayAndRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.options = slices.Clone(options)
	s.mode = mode
	return nil
}

// SetActive implements tts.AudioSession.
func (s *Session) SetActive(active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active && s.output != nil {
		if err := s.output.Open(); err != nil {
			return fmt.Errorf("activating audio output: %w", err)
		}
	}
	s.active = active
	return nil
}

// Active reports whether the session is active.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Category returns the configured category, options and mode.
func (s *Session) Category() (tts.AudioCategory, []tts.CategoryOption, tts.AudioMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category, slices.Clone(s.options), s.mode
}
