package tts

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestKindOf tests mapping errors to taxonomy kinds.
func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"nil", nil, KindNone},
		{"engine", ErrEngineUnavailable, KindEngineUnavailable},
		{"voice", ErrVoiceUnavailable, KindVoiceUnavailable},
		{"resume", ErrResumeFailed, KindResumeFailed},
		{"parameter", fmt.Errorf("%w: volume 2", ErrParameterOutOfRange), KindParameterRange},
		{"session", ErrAudioSessionFailure, KindAudioSession},
		{"malformed", ErrMalformedRequest, KindMalformedRequest},
		{"synthesis", ErrSynthesisFailed, KindSynthesisFailed},
		{"file", ErrFileWrite, KindFileWrite},
		{"canceled", ErrCanceled, KindCanceled},
		{"superseded", ErrSuperseded, KindSuperseded},
		{"closed", ErrClosed, KindClosed},
		{"wrapped in TTSError", NewTTSError("speak", "en-US", ErrVoiceUnavailable), KindVoiceUnavailable},
		{"foreign", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %q, want %q", got, tt.kind)
			}
		})
	}
}

// TestTTSError tests error formatting and unwrapping.
func TestTTSError(t *testing.T) {
	tests := []struct {
		name     string
		err      *TTSError
		contains []string
	}{
		{
			name:     "with language",
			err:      NewTTSError("speak", "fr-FR", ErrEngineUnavailable),
			contains: []string{"speak", "fr-FR", "no synthesizer"},
		},
		{
			name:     "without language",
			err:      NewTTSError("setVolume", "", ErrParameterOutOfRange),
			contains: []string{"setVolume: parameter out of range"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, want it to contain %q", msg, s)
				}
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("errors.Is should match the wrapped error")
			}
			if tt.err.Kind() != KindOf(tt.err.Err) {
				t.Errorf("Kind() = %q, want %q", tt.err.Kind(), KindOf(tt.err.Err))
			}
		})
	}

	var target *TTSError
	wrapped := fmt.Errorf("outer: %w", NewTTSError("pause", "", ErrResumeFailed))
	if !errors.As(wrapped, &target) || target.Op != "pause" {
		t.Error("errors.As should find the TTSError")
	}
}
