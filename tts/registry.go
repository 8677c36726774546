package tts

import (
	"errors"
	"fmt"
	"sort"
)

type trackedUtterance struct {
	utterance Utterance
	live      bool
}

// Engine owns one synthesizer bound to a LanguageKey and tracks the state
// of its live output.
type Engine struct {
	key     LanguageKey
	synth   Synthesizer
	machine *StateMachine

	current string // ID of the live utterance, empty when idle
	tracked map[string]trackedUtterance
}

func newEngine(key LanguageKey, synth Synthesizer) *Engine {
	return &Engine{
		key:     key,
		synth:   synth,
		machine: NewStateMachine(),
		tracked: make(map[string]trackedUtterance),
	}
}

// Key returns the language the engine is bound to.
func (e *Engine) Key() LanguageKey { return e.key }

// State returns the state of live output.
func (e *Engine) State() EngineState { return e.machine.Current() }

// Current returns the live utterance, if any.
func (e *Engine) Current() (Utterance, bool) {
	if e.current == "" {
		return Utterance{}, false
	}
	t, ok := e.tracked[e.current]
	return t.utterance, ok
}

// Speak starts live output of u. A live utterance already in flight is
// stopped first.
func (e *Engine) Speak(u Utterance) error {
	if e.State().IsActive() {
		e.Stop()
	}
	if err := e.synth.Speak(u); err != nil {
		return fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	e.tracked[u.ID] = trackedUtterance{utterance: u, live: true}
	e.current = u.ID
	e.machine.Transition(StateSpeaking)
	return nil
}

// Write renders u to buffers. It does not affect the live state.
func (e *Engine) Write(u Utterance) error {
	if err := e.synth.Write(u); err != nil {
		return fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	e.tracked[u.ID] = trackedUtterance{utterance: u}
	return nil
}

// Pause pauses live output. An engine that is already paused reports
// success without asking the platform again.
func (e *Engine) Pause(boundary PauseBoundary) bool {
	switch e.State() {
	case StatePaused:
		return true
	case StateSpeaking:
		if !e.synth.Pause(boundary) {
			return false
		}
		return e.machine.Transition(StatePaused)
	default:
		return false
	}
}

// Resume continues paused output.
func (e *Engine) Resume() bool {
	if e.State() != StatePaused {
		return false
	}
	if !e.synth.Continue() {
		return false
	}
	return e.machine.Transition(StateSpeaking)
}

// Stop discards everything in flight and returns the engine to idle.
func (e *Engine) Stop() {
	e.synth.Stop()
	e.current = ""
	e.machine.Transition(StateIdle)
}

// Observe applies a platform event to the engine and returns the utterance
// it belongs to. Events for utterances the engine no longer tracks are
// reported as unknown.
func (e *Engine) Observe(ev Event) (Utterance, bool) {
	t, ok := e.tracked[ev.Utterance]
	if !ok {
		return Utterance{}, false
	}

	live := t.live && ev.Utterance == e.current
	switch {
	case ev.Kind.Terminal():
		delete(e.tracked, ev.Utterance)
		if live {
			e.current = ""
			e.machine.Transition(StateIdle)
		}
	case ev.Kind == EventPause && live:
		e.machine.Transition(StatePaused)
	case ev.Kind == EventContinue && live:
		e.machine.Transition(StateSpeaking)
	}
	return t.utterance, true
}

// SynthesizerFactory creates the synthesizer for a language.
type SynthesizerFactory func(key LanguageKey) (Synthesizer, error)

// EngineRegistry maps LanguageKeys to engines. Engines are created on first
// reference and live until TearDown.
type EngineRegistry struct {
	factory SynthesizerFactory
	engines map[LanguageKey]*Engine
	onState func(key LanguageKey, state EngineState)
}

// OnStateChange registers fn to run whenever an engine created afterwards
// enters a new state.
func (r *EngineRegistry) OnStateChange(fn func(key LanguageKey, state EngineState)) {
	r.onState = fn
}

// NewEngineRegistry creates an empty registry.
func NewEngineRegistry(factory SynthesizerFactory) *EngineRegistry {
	return &EngineRegistry{
		factory: factory,
		engines: make(map[LanguageKey]*Engine),
	}
}

// Lookup returns the engine registered for key.
func (r *EngineRegistry) Lookup(key LanguageKey) (*Engine, bool) {
	e, ok := r.engines[key]
	return e, ok
}

// GetOrCreate returns the engine for key, creating and registering it if
// needed.
func (r *EngineRegistry) GetOrCreate(key LanguageKey) (*Engine, error) {
	if e, ok := r.engines[key]; ok {
		return e, nil
	}
	synth, err := r.factory(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, key, err)
	}
	e := newEngine(key, synth)
	if fn := r.onState; fn != nil {
		for _, state := range []EngineState{StateIdle, StateSpeaking, StatePaused} {
			e.machine.OnEnter(state, func() { fn(key, state) })
		}
	}
	r.engines[key] = e
	return e, nil
}

// InitializeAll creates an engine for every key not yet registered.
// Existing engines are never replaced.
func (r *EngineRegistry) InitializeAll(keys []LanguageKey) error {
	var errs []error
	for _, key := range keys {
		if _, err := r.GetOrCreate(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ForEach applies fn to every engine in key order.
func (r *EngineRegistry) ForEach(fn func(*Engine)) {
	for _, key := range r.Keys() {
		fn(r.engines[key])
	}
}

// ForEachExcept applies fn to every engine other than the one for key.
func (r *EngineRegistry) ForEachExcept(key LanguageKey, fn func(*Engine)) {
	r.ForEach(func(e *Engine) {
		if e.key != key {
			fn(e)
		}
	})
}

// Keys returns the registered keys, sorted.
func (r *EngineRegistry) Keys() []LanguageKey {
	keys := make([]LanguageKey, 0, len(r.engines))
	for key := range r.engines {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of registered engines.
func (r *EngineRegistry) Len() int {
	return len(r.engines)
}

// TearDown stops and forgets every engine.
func (r *EngineRegistry) TearDown() {
	r.ForEach(func(e *Engine) { e.Stop() })
	r.engines = make(map[LanguageKey]*Engine)
}
