package tts

import (
	"errors"
	"fmt"
)

// Errors surfaced by the dispatcher.
var (
	// ErrEngineUnavailable indicates there is no synthesizer for the requested language.
	ErrEngineUnavailable = errors.New("no synthesizer for requested language")
	// ErrVoiceUnavailable indicates neither an override nor a locale voice resolved.
	ErrVoiceUnavailable = errors.New("no voice available for requested language")
	// ErrResumeFailed indicates the platform declined to resume a paused engine.
	ErrResumeFailed = errors.New("platform declined to resume speech")
	// ErrParameterOutOfRange indicates a rejected volume or pitch value.
	ErrParameterOutOfRange = errors.New("parameter out of range")
	// ErrAudioSessionFailure indicates the audio session could not be configured or activated.
	ErrAudioSessionFailure = errors.New("audio session failure")
	// ErrMalformedRequest indicates a request is missing required fields.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrSynthesisFailed indicates the platform refused an utterance.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrFileWrite indicates a synthesized buffer could not be written.
	ErrFileWrite = errors.New("failed to write synthesized audio")
	// ErrCanceled indicates the utterance was cancelled before it finished.
	ErrCanceled = errors.New("utterance canceled")
	// ErrSuperseded indicates a newer request took over the pending result slot.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrClosed indicates the dispatcher has been shut down.
	ErrClosed = errors.New("dispatcher closed")
)

// ErrorKind classifies errors for callers that report outcomes as values.
type ErrorKind string

// Error kinds.
const (
	KindNone              ErrorKind = ""
	KindEngineUnavailable ErrorKind = "engine_unavailable"
	KindVoiceUnavailable  ErrorKind = "voice_unavailable"
	KindResumeFailed      ErrorKind = "resume_failed"
	KindParameterRange    ErrorKind = "parameter_out_of_range"
	KindAudioSession      ErrorKind = "audio_session_failure"
	KindMalformedRequest  ErrorKind = "malformed_request"
	KindSynthesisFailed   ErrorKind = "synthesis_failed"
	KindFileWrite         ErrorKind = "file_write"
	KindCanceled          ErrorKind = "canceled"
	KindSuperseded        ErrorKind = "superseded"
	KindClosed            ErrorKind = "closed"
	KindUnknown           ErrorKind = "unknown"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrEngineUnavailable, KindEngineUnavailable},
	{ErrVoiceUnavailable, KindVoiceUnavailable},
	{ErrResumeFailed, KindResumeFailed},
	{ErrParameterOutOfRange, KindParameterRange},
	{ErrAudioSessionFailure, KindAudioSession},
	{ErrMalformedRequest, KindMalformedRequest},
	{ErrSynthesisFailed, KindSynthesisFailed},
	{ErrFileWrite, KindFileWrite},
	{ErrCanceled, KindCanceled},
	{ErrSuperseded, KindSuperseded},
	{ErrClosed, KindClosed},
}

// KindOf maps err to its ErrorKind. A nil error is KindNone.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// TTSError provides operation context for a dispatcher error.
type TTSError struct {
	Op       string // Operation that failed (speak, pause, setVolume...)
	Language string // Language the operation targeted, if any
	Err      error  // The underlying error
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Language, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// Kind returns the taxonomy kind of the underlying error.
func (e *TTSError) Kind() ErrorKind {
	return KindOf(e.Err)
}

// NewTTSError creates a new TTS error with context.
func NewTTSError(op, language string, err error) *TTSError {
	return &TTSError{
		Op:       op,
		Language: language,
		Err:      err,
	}
}
