package tts

import "testing"

// TestNormalizeLanguage tests LanguageKey derivation.
func TestNormalizeLanguage(t *testing.T) {
	if got := NormalizeLanguage("en-US"); got != "en-us" {
		t.Errorf("NormalizeLanguage(en-US) = %q, want en-us", got)
	}
	if NormalizeLanguage("EN-us") != NormalizeLanguage("en-US") {
		t.Error("Keys should not depend on case")
	}
}

// TestParsePauseBoundary tests boundary config values.
func TestParsePauseBoundary(t *testing.T) {
	tests := []struct {
		in   string
		want PauseBoundary
		ok   bool
	}{
		{"", PauseImmediate, true},
		{"immediate", PauseImmediate, true},
		{"Word", PauseWord, true},
		{"sentence", PauseImmediate, false},
	}
	for _, tt := range tests {
		got, ok := ParsePauseBoundary(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePauseBoundary(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestWordRanges tests word splitting.
func TestWordRanges(t *testing.T) {
	tests := []struct {
		text string
		want [][2]int
	}{
		{"", nil},
		{"   ", nil},
		{"hello", [][2]int{{0, 5}}},
		{"hello world", [][2]int{{0, 5}, {6, 11}}},
		{"  two\tspaced  ", [][2]int{{2, 5}, {6, 12}}},
		{"héllo wörld", [][2]int{{0, 6}, {7, 13}}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := WordRanges(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("WordRanges(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("WordRanges(%q) = %v, want %v", tt.text, got, tt.want)
				}
			}
		})
	}
}
