package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/muesli/reflow/truncate"
)

// StatusDisplay tracks the spoken text from lifecycle notifications.
type StatusDisplay struct {
	state        tts.EngineState
	started      bool
	finished     bool
	canceled     bool
	language     string
	word         string
	start, end   int
	spokenWords  int
	totalWords   int
	errorMessage string
}

// NewStatusDisplay creates a display for text.
func NewStatusDisplay(text string) *StatusDisplay {
	return &StatusDisplay{
		state:      tts.StateIdle,
		totalWords: len(tts.WordRanges(text)),
	}
}

// Apply updates the display from a notification.
func (s *StatusDisplay) Apply(n tts.Notification) {
	s.language = n.Language
	switch n.Kind {
	case tts.NotifyStart:
		s.state = tts.StateSpeaking
		s.started = true
		s.finished, s.canceled = false, false
		s.spokenWords = 0
		s.word, s.start, s.end = "", 0, 0
		s.errorMessage = ""
	case tts.NotifyProgress:
		s.word, s.start, s.end = n.Word, n.Start, n.End
		s.spokenWords = min(s.spokenWords+1, s.totalWords)
	case tts.NotifyPause:
		s.state = tts.StatePaused
	case tts.NotifyContinue:
		s.state = tts.StateSpeaking
	case tts.NotifyComplete:
		s.state = tts.StateIdle
		s.finished = true
		s.spokenWords = s.totalWords
		s.word, s.start, s.end = "", 0, 0
	case tts.NotifyCancel:
		s.state = tts.StateIdle
		s.canceled = true
		s.word, s.start, s.end = "", 0, 0
	}
}

// SetError records a failed request.
func (s *StatusDisplay) SetError(err error) {
	if err == nil {
		s.errorMessage = ""
		return
	}
	s.errorMessage = err.Error()
}

// Waiting reports whether speech has been requested but has not started.
func (s *StatusDisplay) Waiting() bool {
	return !s.started && s.errorMessage == ""
}

// Paused reports whether output is paused.
func (s *StatusDisplay) Paused() bool {
	return s.state == tts.StatePaused
}

// Done reports whether the last utterance ended.
func (s *StatusDisplay) Done() bool {
	return s.finished || s.canceled
}

// Range returns the byte range of the word being spoken.
func (s *StatusDisplay) Range() (int, int) {
	return s.start, s.end
}

// CompactStatus returns a compact status string for the status bar.
func (s *StatusDisplay) CompactStatus(width int) string {
	if s.errorMessage != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
		msg := s.errorMessage
		if width > 4 {
			msg = truncate.StringWithTail(msg, uint(width-2), "...") //nolint:gosec
		}
		return errorStyle.Render("✗ " + msg)
	}

	var (
		icon  string
		color lipgloss.Color
	)
	switch {
	case s.state == tts.StateSpeaking:
		icon, color = "▶", lipgloss.Color("#00FF00")
	case s.state == tts.StatePaused:
		icon, color = "⏸", lipgloss.Color("#FFFF00")
	case s.finished:
		icon, color = "✓", lipgloss.Color("#888888")
	case s.canceled:
		icon, color = "■", lipgloss.Color("#FF8800")
	default:
		return ""
	}

	status := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %s", icon, s.language))
	if s.totalWords > 0 {
		counterStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
		status += counterStyle.Render(fmt.Sprintf(" %d/%d", s.spokenWords, s.totalWords))
	}
	return status
}

// ProgressBar returns a bar of width cells filled by the spoken share of
// the text.
func (s *StatusDisplay) ProgressBar(width int) string {
	if s.totalWords <= 0 || width < 10 {
		return ""
	}
	filled := min(s.spokenWords*width/s.totalWords, width)

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}
