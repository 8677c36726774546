package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	voicesFilter string

	voicesCmd = &cobra.Command{
		Use:     "voices",
		Short:   "List the installed voices",
		Example: paragraph("lingo voices\nlingo voices --filter french"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSpeech(ttsConfig)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			return writeVoices(cmd.OutOrStdout(), s.Voices(), voicesFilter)
		},
	}
)

func init() {
	voicesCmd.Flags().StringVarP(&voicesFilter, "filter", "f", "", "fuzzy filter on name, locale, language or identifier")
}

// voiceSource adapts voices to fuzzy.Source.
type voiceSource []tts.Voice

func (v voiceSource) String(i int) string {
	voice := v[i]
	return strings.Join([]string{voice.Name, voice.Locale, languageName(voice.Locale), voice.Identifier}, " ")
}

func (v voiceSource) Len() int { return len(v) }

// filterVoices returns the voices matching pattern, best match first. An
// empty pattern returns every voice sorted by locale and name.
func filterVoices(voices []tts.Voice, pattern string) []tts.Voice {
	if pattern == "" {
		sorted := slices.Clone(voices)
		slices.SortFunc(sorted, func(a, b tts.Voice) int {
			if c := strings.Compare(a.Locale, b.Locale); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		})
		return sorted
	}

	matches := fuzzy.FindFrom(pattern, voiceSource(voices))
	out := make([]tts.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

func writeVoices(w io.Writer, voices []tts.Voice, pattern string) error {
	voices = filterVoices(voices, pattern)
	if len(voices) == 0 {
		_, err := fmt.Fprintln(w, subtle("No voices found."))
		return err
	}

	name := lipgloss.NewStyle().Width(16)
	locale := lipgloss.NewStyle().Width(8)
	quality := lipgloss.NewStyle().Width(10)
	for _, v := range voices {
		gender := "-"
		if v.Gender != nil {
			gender = *v.Gender
		}
		line := name.Render(v.Name) + locale.Render(v.Locale) + quality.Render(v.Quality) + gender
		if _, err := fmt.Fprintln(w, line+"  "+subtle(v.Identifier)); err != nil {
			return err
		}
	}
	return nil
}
