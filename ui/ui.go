// Package ui provides the terminal program that speaks a text and follows
// along with it.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/tts"
)

const helpText = "space pause/resume • s stop • r replay • q quit"

var (
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAFF"))
)

// errPauseDeclined is shown when the platform refuses to pause.
var errPauseDeclined = errors.New("pause declined")

// NewProgram returns a program speaking text through d. notes must carry
// the dispatcher's notifications.
func NewProgram(cfg Config, d *tts.Dispatcher, notes <-chan tts.Notification, text string) *tea.Program {
	log.Debug("Starting lingo", "language", cfg.Language, "width", cfg.Width)
	return tea.NewProgram(newModel(context.Background(), cfg, d, notes, text))
}

type model struct {
	ctx   context.Context
	cfg   Config
	d     *tts.Dispatcher
	notes <-chan tts.Notification
	text  string

	status    *StatusDisplay
	spinner   spinner.Model
	highlight lipgloss.Style
	width     int
	quitting  bool
}

func newModel(ctx context.Context, cfg Config, d *tts.Dispatcher, notes <-chan tts.Notification, text string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return model{
		ctx:       ctx,
		cfg:       cfg,
		d:         d,
		notes:     notes,
		text:      text,
		status:    NewStatusDisplay(text),
		spinner:   sp,
		highlight: highlightStyle(cfg.HighlightColor),
		width:     int(cfg.Width), //nolint:gosec
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tts.SpeakCmd(m.ctx, m.d, m.text, m.cfg.Language),
		tts.WaitForNotificationCmd(m.notes),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Sequence(tts.StopCmd(m.d), tea.Quit)
		case " ":
			// Resuming speaks again with no text, which continues the
			// paused utterance.
			return m, tts.TogglePauseCmd(m.ctx, m.d, m.status.Paused(), "", m.cfg.Language)
		case "s":
			return m, tts.StopCmd(m.d)
		case "r":
			m.status = NewStatusDisplay(m.text)
			return m, tts.SpeakCmd(m.ctx, m.d, m.text, m.cfg.Language)
		}

	case tea.WindowSizeMsg:
		if m.cfg.Width == 0 {
			m.width = min(msg.Width, 120)
		}

	case spinner.TickMsg:
		if !m.status.Waiting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tts.NotificationMsg:
		m.status.Apply(msg.Notification)
		cmds := []tea.Cmd{tts.WaitForNotificationCmd(m.notes)}
		if m.status.Done() && m.cfg.QuitOnFinish {
			m.quitting = true
			cmds = append(cmds, tea.Quit)
		}
		return m, tea.Batch(cmds...)

	case tts.SpeakDoneMsg:
		if msg.Err != nil {
			log.Debug("speak failed", "error", msg.Err)
			m.status.SetError(msg.Err)
		}

	case tts.PausedMsg:
		if !msg.OK {
			m.status.SetError(errPauseDeclined)
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	if m.status.Waiting() {
		b.WriteString(m.spinner.View() + " Preparing speech...\n\n")
	}

	start, end := m.status.Range()
	b.WriteString(RenderText(m.text, start, end, m.highlight, m.width))
	b.WriteString("\n\n")

	if m.cfg.ShowProgress {
		if bar := m.status.ProgressBar(max(m.width, 20)); bar != "" {
			b.WriteString(bar + "\n")
		}
	}
	if status := m.status.CompactStatus(m.width); status != "" {
		b.WriteString(status + "  ")
	}
	b.WriteString(helpStyle.Render(helpText) + "\n")
	return b.String()
}
