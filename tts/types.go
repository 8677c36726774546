package tts

import (
	"strings"
	"unicode"
)

// LanguageKey is the normalized (lower-cased) locale identifier used to key
// engines and voice overrides.
type LanguageKey string

// NormalizeLanguage derives the LanguageKey for a locale.
func NormalizeLanguage(language string) LanguageKey {
	return LanguageKey(strings.ToLower(language))
}

// String returns the key as a plain string.
func (k LanguageKey) String() string {
	return string(k)
}

// Voice describes a platform voice.
type Voice struct {
	Name       string  `json:"name"`
	Locale     string  `json:"locale"`
	Quality    string  `json:"quality"`
	Gender     *string `json:"gender,omitempty"` // nil when the platform cannot report it
	Identifier string  `json:"identifier"`
}

// Utterance is a single request unit submitted to an engine. It is not
// modified once submitted.
type Utterance struct {
	ID     string
	Text   string
	Voice  Voice
	Rate   float64
	Volume float64
	Pitch  float64
}

// RateRange describes the speech rates a platform accepts.
type RateRange struct {
	Min      float64 `json:"min"`
	Normal   float64 `json:"normal"`
	Max      float64 `json:"max"`
	Platform string  `json:"platform"`
}

// PauseBoundary selects where a pause takes effect.
type PauseBoundary int

const (
	// PauseImmediate pauses mid-word.
	PauseImmediate PauseBoundary = iota
	// PauseWord pauses after the word being spoken.
	PauseWord
)

// String returns the config name of the boundary.
func (b PauseBoundary) String() string {
	switch b {
	case PauseWord:
		return "word"
	default:
		return "immediate"
	}
}

// ParsePauseBoundary parses a config value into a PauseBoundary.
func ParsePauseBoundary(s string) (PauseBoundary, bool) {
	switch strings.ToLower(s) {
	case "", "immediate":
		return PauseImmediate, true
	case "word":
		return PauseWord, true
	default:
		return PauseImmediate, false
	}
}

// WordRanges returns the byte range of every whitespace separated word in
// text.
func WordRanges(text string) [][2]int {
	var ranges [][2]int
	start := -1
	for i, r := range text {
		space := unicode.IsSpace(r)
		switch {
		case !space && start < 0:
			start = i
		case space && start >= 0:
			ranges = append(ranges, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		ranges = append(ranges, [2]int{start, len(text)})
	}
	return ranges
}
