package tts

import (
	"fmt"
	"strings"
)

// AudioCategory selects how output mixes with other audio.
type AudioCategory string

// Audio categories.
const (
	CategoryAmbient       AudioCategory = "ambient"
	CategorySoloAmbient   AudioCategory = "soloAmbient"
	CategoryPlayback      AudioCategory = "playback"
	CategoryRecord        AudioCategory = "record"
	CategoryPlayAndRecord AudioCategory = "playAndRecord"
	CategoryMultiRoute    AudioCategory = "multiRoute"
)

// CategoryOption refines an AudioCategory.
type CategoryOption string

// Category options.
const (
	OptionMixWithOthers                        CategoryOption = "mixWithOthers"
	OptionDuckOthers                           CategoryOption = "duckOthers"
	OptionInterruptSpokenAudioAndMixWithOthers CategoryOption = "interruptSpokenAudioAndMixWithOthers"
	OptionAllowBluetooth                       CategoryOption = "allowBluetooth"
	OptionAllowBluetoothA2DP                   CategoryOption = "allowBluetoothA2DP"
	OptionAllowAirPlay                         CategoryOption = "allowAirPlay"
	OptionDefaultToSpeaker                     CategoryOption = "defaultToSpeaker"
)

// AudioMode tunes the session for a kind of content.
type AudioMode string

// Audio modes.
const (
	ModeDefault        AudioMode = "default"
	ModeGameChat       AudioMode = "gameChat"
	ModeMeasurement    AudioMode = "measurement"
	ModeMoviePlayback  AudioMode = "moviePlayback"
	ModeSpokenAudio    AudioMode = "spokenAudio"
	ModeVideoChat      AudioMode = "videoChat"
	ModeVideoRecording AudioMode = "videoRecording"
	ModeVoiceChat      AudioMode = "voiceChat"
	ModeVoicePrompt    AudioMode = "voicePrompt"
)

var (
	categories = []AudioCategory{
		CategoryAmbient, CategorySoloAmbient, CategoryPlayback,
		CategoryRecord, CategoryPlayAndRecord, CategoryMultiRoute,
	}
	categoryOptions = []CategoryOption{
		OptionMixWithOthers, OptionDuckOthers, OptionInterruptSpokenAudioAndMixWithOthers,
		OptionAllowBluetooth, OptionAllowBluetoothA2DP, OptionAllowAirPlay, OptionDefaultToSpeaker,
	}
	modes = []AudioMode{
		ModeDefault, ModeGameChat, ModeMeasurement, ModeMoviePlayback, ModeSpokenAudio,
		ModeVideoChat, ModeVideoRecording, ModeVoiceChat, ModeVoicePrompt,
	}
)

// ParseAudioCategory parses a category name, ignoring case.
func ParseAudioCategory(s string) (AudioCategory, error) {
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown audio category %q", ErrMalformedRequest, s)
}

// ParseCategoryOptions parses option names, ignoring case.
func ParseCategoryOptions(names []string) ([]CategoryOption, error) {
	opts := make([]CategoryOption, 0, len(names))
outer:
	for _, name := range names {
		for _, o := range categoryOptions {
			if strings.EqualFold(name, string(o)) {
				opts = append(opts, o)
				continue outer
			}
		}
		return nil, fmt.Errorf("%w: unknown category option %q", ErrMalformedRequest, name)
	}
	return opts, nil
}

// ParseAudioMode parses a mode name, ignoring case. An empty name is
// ModeDefault.
func ParseAudioMode(s string) (AudioMode, error) {
	if s == "" {
		return ModeDefault, nil
	}
	for _, m := range modes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown audio mode %q", ErrMalformedRequest, s)
}

// SessionLifecycleController applies application foreground and background
// transitions to the engines. It runs on the dispatcher's owner goroutine.
type SessionLifecycleController struct {
	catalog  *VoiceCatalog
	registry *EngineRegistry
	boundary func() PauseBoundary
}

// NewSessionLifecycleController creates a controller over catalog and
// registry. boundary supplies the pause boundary at the time of the pause.
func NewSessionLifecycleController(catalog *VoiceCatalog, registry *EngineRegistry, boundary func() PauseBoundary) *SessionLifecycleController {
	return &SessionLifecycleController{catalog: catalog, registry: registry, boundary: boundary}
}

// Foreground re-enumerates voices and creates engines for languages found
// since the last refresh. Existing engines are left untouched.
func (c *SessionLifecycleController) Foreground() error {
	if err := c.catalog.Refresh(); err != nil {
		return err
	}
	return c.registry.InitializeAll(c.catalog.Keys())
}

// Background pauses every speaking engine, ignoring failures. It returns the
// number of engines that paused.
func (c *SessionLifecycleController) Background() int {
	paused := 0
	c.registry.ForEach(func(e *Engine) {
		if e.State() != StateSpeaking {
			return
		}
		if e.Pause(c.boundary()) {
			paused++
		}
	})
	return paused
}
