package audio

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/lingo/tts"
)

type fakeOpener struct {
	err   error
	opens int
}

func (o *fakeOpener) Open() error {
	o.opens++
	return o.err
}

// TestSessionConfigure tests category validation.
func TestSessionConfigure(t *testing.T) {
	tests := []struct {
		name     string
		category tts.AudioCategory
		options  []tts.CategoryOption
		wantErr  bool
	}{
		{"playback", tts.CategoryPlayback, nil, false},
		{"ambient mixing", tts.CategoryAmbient, []tts.CategoryOption{tts.OptionMixWithOthers}, false},
		{"record", tts.CategoryRecord, nil, true},
		{"speaker on playback", tts.CategoryPlayback, []tts.CategoryOption{tts.OptionDefaultToSpeaker}, true},
		{"speaker on playAndRecord", tts.CategoryPlayAndRecord, []tts.CategoryOption{tts.OptionDefaultToSpeaker}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(nil)
			err := s.Configure(tt.category, tt.options, tts.ModeSpokenAudio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Configure() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			c, opts, m := s.Category()
			if c != tt.category || len(opts) != len(tt.options) || m != tts.ModeSpokenAudio {
				t.Errorf("Unexpected session category %s %v %s", c, opts, m)
			}
		})
	}
}

// TestSessionActivation tests that activation opens the output.
func TestSessionActivation(t *testing.T) {
	opener := &fakeOpener{}
	s := NewSession(nil)
	s.output = opener

	if err := s.SetActive(true); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if !s.Active() || opener.opens != 1 {
		t.Errorf("Expected active session with one open, got %v/%d", s.Active(), opener.opens)
	}
	if err := s.SetActive(false); err != nil {
		t.Fatalf("SetActive(false) failed: %v", err)
	}
	if s.Active() {
		t.Error("Expected inactive session")
	}

	opener.err = errors.New("busy")
	if err := s.SetActive(true); err == nil {
		t.Error("Expected activation to fail")
	}
	if s.Active() {
		t.Error("Failed activation should leave the session inactive")
	}
}
