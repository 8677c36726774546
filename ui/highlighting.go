package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// highlightStyle returns the style of the word being spoken.
func highlightStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("0")).
		Bold(true)
}

// HighlightWord renders text with the byte range [start, end) in style.
// An empty or invalid range leaves text unchanged.
func HighlightWord(text string, start, end int, style lipgloss.Style) string {
	if start < 0 || end > len(text) || start >= end {
		return text
	}
	return text[:start] + style.Render(text[start:end]) + text[end:]
}

// RenderText highlights the current word and wraps the result at width.
func RenderText(text string, start, end int, style lipgloss.Style, width int) string {
	out := HighlightWord(text, start, end, style)
	if width <= 0 {
		return out
	}
	return wordwrap.String(out, width)
}
