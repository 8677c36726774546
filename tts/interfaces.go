package tts

import "io"

// Platform is the speech backend the dispatcher drives. Voice enumeration,
// phoneme generation and audio rendering all live behind it.
type Platform interface {
	// Name identifies the platform in rate ranges and logs.
	Name() string

	// Voices enumerates the voices the platform currently exposes.
	Voices() ([]Voice, error)

	// RateRange reports the accepted speech rates.
	RateRange() RateRange

	// NewSynthesizer creates a synthesis unit bound to one language. Every
	// event the unit produces must be reported through sink.
	NewSynthesizer(key LanguageKey, sink EventSink) (Synthesizer, error)
}

// Synthesizer is one platform synthesis unit.
//
// Every utterance accepted by Speak or Write ends with exactly one
// EventFinish or EventCancel. Events may be reported from any goroutine.
type Synthesizer interface {
	// Speak starts live output of the utterance.
	Speak(u Utterance) error

	// Write renders the utterance to PCM buffers reported as EventBuffer
	// events. A zero-length buffer marks the end of the stream.
	Write(u Utterance) error

	// Pause pauses live output. It reports whether the platform accepted.
	Pause(boundary PauseBoundary) bool

	// Continue resumes paused output. It reports whether the platform accepted.
	Continue() bool

	// Stop discards any in-flight utterance immediately.
	Stop()
}

// AudioSession is the audio output/session subsystem.
type AudioSession interface {
	// Configure sets the output category, its options and the mode.
	Configure(category AudioCategory, options []CategoryOption, mode AudioMode) error

	// SetActive activates or deactivates the session.
	SetActive(active bool) error
}

// FileSink creates the files synthesized audio is written to.
type FileSink interface {
	Create(name string) (io.WriteCloser, error)
}

// Notifier receives outbound lifecycle notifications. Notify must not block
// for long; it runs on the dispatcher's delivery goroutine.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Completion receives the outcome of a request. A nil error means success.
type Completion func(err error)
