package tts

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the dispatcher and the UI.

// NotificationMsg carries one lifecycle notification.
type NotificationMsg struct {
	Notification
}

// NotificationsClosedMsg indicates the notification stream has ended.
type NotificationsClosedMsg struct{}

// SpeakDoneMsg reports the outcome of a speak request.
type SpeakDoneMsg struct {
	Err error
}

// PausedMsg reports the outcome of a pause request.
type PausedMsg struct {
	OK bool
}

// StoppedMsg indicates every engine has been stopped.
type StoppedMsg struct{}

// ChannelNotifier forwards notifications to a channel so a Bubble Tea
// program can wait on them.
type ChannelNotifier struct {
	ch chan Notification
}

// NewChannelNotifier creates a notifier buffering up to size notifications.
// Notify blocks once the buffer is full.
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan Notification, size)}
}

// Notify implements Notifier.
func (c *ChannelNotifier) Notify(n Notification) {
	c.ch <- n
}

// C returns the notification channel.
func (c *ChannelNotifier) C() <-chan Notification {
	return c.ch
}

// Commands for async dispatcher operations.

// WaitForNotificationCmd waits for the next notification on ch.
func WaitForNotificationCmd(ch <-chan Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return NotificationsClosedMsg{}
		}
		return NotificationMsg{Notification: n}
	}
}

// SpeakCmd speaks text and reports the outcome.
func SpeakCmd(ctx context.Context, d *Dispatcher, text, language string) tea.Cmd {
	return func() tea.Msg {
		return SpeakDoneMsg{Err: d.SpeakContext(ctx, text, language)}
	}
}

// TogglePauseCmd pauses live output or, when it is paused, resumes it by
// speaking again in language.
func TogglePauseCmd(ctx context.Context, d *Dispatcher, paused bool, text, language string) tea.Cmd {
	if paused {
		return SpeakCmd(ctx, d, text, language)
	}
	return func() tea.Msg {
		return PausedMsg{OK: d.Pause()}
	}
}

// StopCmd stops every engine.
func StopCmd(d *Dispatcher) tea.Cmd {
	return func() tea.Msg {
		d.Stop()
		return StoppedMsg{}
	}
}
