package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/dgnsrekt/lingo/tts/engines/mock"
)

func testModel(t *testing.T, cfg Config) model {
	t.Helper()
	d, err := tts.NewDispatcher(tts.Options{Platform: mock.New(), Config: tts.DefaultConfig()})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	notes := tts.NewChannelNotifier(16)
	d.Subscribe(notes)
	return newModel(context.Background(), cfg, d, notes.C(), "hello brave world")
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	um, ok := next.(model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return um, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want tea.Msg
	}{
		{name: "stop", key: runes("s"), want: tts.StoppedMsg{}},
		{name: "pause with nothing speaking", key: tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, want: tts.PausedMsg{OK: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, Config{Language: "en-US"})
			_, cmd := update(t, m, tt.key)
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if got := cmd(); got != tt.want {
				t.Errorf("command produced %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		t.Run(key.String(), func(t *testing.T) {
			m := testModel(t, Config{})
			if _, cmd := update(t, m, key); cmd == nil {
				t.Errorf("%s should quit", key)
			}
		})
	}
}

func TestReplaySpeaks(t *testing.T) {
	m := testModel(t, Config{Language: "en-US"})
	m.status.Apply(tts.Notification{Kind: tts.NotifyStart})
	m.status.Apply(tts.Notification{Kind: tts.NotifyComplete})

	m, cmd := update(t, m, runes("r"))
	if cmd == nil {
		t.Fatal("replay should speak")
	}
	if m.status.Done() || !m.status.Waiting() {
		t.Error("replay should reset the status")
	}
	if msg, ok := cmd().(tts.SpeakDoneMsg); !ok || msg.Err != nil {
		t.Errorf("replay produced %#v", msg)
	}
}

func TestNotificationUpdatesStatus(t *testing.T) {
	tests := []struct {
		name         string
		quitOnFinish bool
	}{
		{name: "quit on finish", quitOnFinish: true},
		{name: "stay open", quitOnFinish: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, Config{QuitOnFinish: tt.quitOnFinish})
			m, _ = update(t, m, tts.NotificationMsg{Notification: tts.Notification{Kind: tts.NotifyStart, Language: "en-US"}})
			m, _ = update(t, m, tts.NotificationMsg{Notification: tts.Notification{Kind: tts.NotifyProgress, Start: 6, End: 11, Word: "brave"}})
			if start, end := m.status.Range(); start != 6 || end != 11 {
				t.Errorf("Range() = %d, %d", start, end)
			}

			m, cmd := update(t, m, tts.NotificationMsg{Notification: tts.Notification{Kind: tts.NotifyComplete}})
			if !m.status.Done() {
				t.Error("status should be done")
			}
			if cmd == nil {
				t.Fatal("expected to keep waiting for notifications")
			}
			if m.quitting != tt.quitOnFinish {
				t.Errorf("quitting = %v, want %v", m.quitting, tt.quitOnFinish)
			}
		})
	}
}

func TestFailuresAreShown(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
		want string
	}{
		{name: "speak failed", msg: tts.SpeakDoneMsg{Err: errors.New("no voice")}, want: "no voice"},
		{name: "pause declined", msg: tts.PausedMsg{OK: false}, want: "pause declined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, Config{})
			m, _ = update(t, m, tt.msg)
			if view := m.View(); !strings.Contains(view, tt.want) {
				t.Errorf("View() = %q, want it to contain %q", view, tt.want)
			}
		})
	}
}

func TestView(t *testing.T) {
	m := testModel(t, Config{ShowProgress: true})
	view := m.View()
	for _, want := range []string{"Preparing speech", "hello brave world", helpText} {
		if !strings.Contains(view, want) {
			t.Errorf("View() should contain %q", want)
		}
	}

	m, _ = update(t, m, tts.NotificationMsg{Notification: tts.Notification{Kind: tts.NotifyStart, Language: "en-US"}})
	view = m.View()
	if strings.Contains(view, "Preparing speech") {
		t.Error("spinner should be gone once speech starts")
	}
	if !strings.Contains(view, "░") {
		t.Error("View() should show the progress bar")
	}
}

func TestWindowSize(t *testing.T) {
	m := testModel(t, Config{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	if m.width != 60 {
		t.Errorf("width = %d, want 60", m.width)
	}

	m = testModel(t, Config{Width: 40})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	if m.width != 40 {
		t.Errorf("configured width = %d, want 40", m.width)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LINGO_UI_WIDTH", "72")
	t.Setenv("LINGO_UI_QUIT_ON_FINISH", "false")

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("ParseAs() error = %v", err)
	}
	if cfg.Width != 72 {
		t.Errorf("Width = %d, want 72", cfg.Width)
	}
	if cfg.QuitOnFinish {
		t.Error("QuitOnFinish should be false")
	}
	if !cfg.ShowProgress || cfg.HighlightColor != "226" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
