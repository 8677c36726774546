package tts

import (
	"fmt"
	"sort"
	"strings"
)

// VoiceSource enumerates platform voices.
type VoiceSource interface {
	Voices() ([]Voice, error)
}

// VoiceCatalog indexes the voices a platform exposes and maps LanguageKeys
// back to the locale casing the platform reports.
type VoiceCatalog struct {
	source  VoiceSource
	voices  []Voice
	display map[LanguageKey]string
}

// NewVoiceCatalog creates an empty catalog over source. Call Refresh to
// populate it.
func NewVoiceCatalog(source VoiceSource) *VoiceCatalog {
	return &VoiceCatalog{
		source:  source,
		display: make(map[LanguageKey]string),
	}
}

// Refresh re-enumerates the platform voices. Known LanguageKeys are never
// forgotten, so engines registered for them stay addressable.
func (c *VoiceCatalog) Refresh() error {
	voices, err := c.source.Voices()
	if err != nil {
		return fmt.Errorf("list voices: %w", err)
	}

	c.voices = append(c.voices[:0:0], voices...)
	for _, v := range voices {
		if v.Locale == "" {
			continue
		}
		c.display[NormalizeLanguage(v.Locale)] = v.Locale
	}
	return nil
}

// IsAvailable reports whether any known language starts with query,
// ignoring case. "en" matches "en-US".
func (c *VoiceCatalog) IsAvailable(query string) bool {
	q := strings.ToLower(query)
	for key := range c.display {
		if strings.HasPrefix(string(key), q) {
			return true
		}
	}
	return false
}

// Languages returns every known display language, sorted.
func (c *VoiceCatalog) Languages() []string {
	langs := make([]string, 0, len(c.display))
	for _, lang := range c.display {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Keys returns every known LanguageKey, sorted.
func (c *VoiceCatalog) Keys() []LanguageKey {
	keys := make([]LanguageKey, 0, len(c.display))
	for key := range c.display {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Display returns the platform casing for key.
func (c *VoiceCatalog) Display(key LanguageKey) (string, bool) {
	lang, ok := c.display[key]
	return lang, ok
}

// Voices returns a copy of the enumerated voices.
func (c *VoiceCatalog) Voices() []Voice {
	return append([]Voice(nil), c.voices...)
}

// VoiceForLocale returns the first voice whose locale equals locale exactly.
func (c *VoiceCatalog) VoiceForLocale(locale string) (Voice, bool) {
	for _, v := range c.voices {
		if v.Locale == locale {
			return v, true
		}
	}
	return Voice{}, false
}

// Find returns the voice with the given name and locale.
func (c *VoiceCatalog) Find(name, locale string) (Voice, bool) {
	for _, v := range c.voices {
		if v.Name == name && v.Locale == locale {
			return v, true
		}
	}
	return Voice{}, false
}

// VoiceOverrideTable holds explicitly selected voices per language. The
// last write for a key wins.
type VoiceOverrideTable struct {
	voices map[LanguageKey]Voice
}

// NewVoiceOverrideTable creates an empty table.
func NewVoiceOverrideTable() *VoiceOverrideTable {
	return &VoiceOverrideTable{voices: make(map[LanguageKey]Voice)}
}

// Set records voice as the override for key.
func (t *VoiceOverrideTable) Set(key LanguageKey, voice Voice) {
	t.voices[key] = voice
}

// Get returns the override for key.
func (t *VoiceOverrideTable) Get(key LanguageKey) (Voice, bool) {
	v, ok := t.voices[key]
	return v, ok
}

// Len returns the number of overrides.
func (t *VoiceOverrideTable) Len() int {
	return len(t.voices)
}
