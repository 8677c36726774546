package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	languagesCheck string

	languagesCmd = &cobra.Command{
		Use:     "languages",
		Short:   "List the languages voices are installed for",
		Example: paragraph("lingo languages\nlingo languages --check fr-FR"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSpeech(ttsConfig)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if languagesCheck != "" {
				if !s.IsLanguageAvailable(languagesCheck) {
					return fmt.Errorf("language %s is not available", languagesCheck)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s is available\n", keyword(languagesCheck))
				return err
			}
			return writeLanguages(cmd.OutOrStdout(), s.Languages())
		},
	}
)

func init() {
	languagesCmd.Flags().StringVar(&languagesCheck, "check", "", "exit with an error unless the language is available")
}

// languageName returns the English name of a locale, or an empty string
// when it is not a valid BCP 47 tag.
func languageName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	return display.English.Tags().Name(tag)
}

// nativeName returns the name of a locale in its own language.
func nativeName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	return display.Self.Name(tag)
}

func writeLanguages(w io.Writer, languages []string) error {
	if len(languages) == 0 {
		_, err := fmt.Fprintln(w, subtle("No languages found."))
		return err
	}

	code := lipgloss.NewStyle().Width(8)
	name := lipgloss.NewStyle().Width(28)
	for _, l := range languages {
		line := code.Render(l) + name.Render(languageName(l)) + subtle(nativeName(l))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
