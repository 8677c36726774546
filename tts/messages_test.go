package tts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dgnsrekt/lingo/tts"
	"github.com/dgnsrekt/lingo/tts/engines/mock"
)

// TestChannelNotifier tests that notifications are forwarded in order.
func TestChannelNotifier(t *testing.T) {
	n := tts.NewChannelNotifier(2)
	n.Notify(tts.Notification{Kind: tts.NotifyStart, Utterance: "u1"})
	n.Notify(tts.Notification{Kind: tts.NotifyComplete, Utterance: "u1"})

	if got := <-n.C(); got.Kind != tts.NotifyStart {
		t.Errorf("Expected onStart first, got %s", got.Kind)
	}
	if got := <-n.C(); got.Kind != tts.NotifyComplete {
		t.Errorf("Expected onComplete second, got %s", got.Kind)
	}
}

// TestWaitForNotificationCmd tests the notification command.
func TestWaitForNotificationCmd(t *testing.T) {
	ch := make(chan tts.Notification, 1)
	ch <- tts.Notification{Kind: tts.NotifyProgress, Word: "hello"}

	msg := tts.WaitForNotificationCmd(ch)()
	nm, ok := msg.(tts.NotificationMsg)
	if !ok {
		t.Fatalf("Expected NotificationMsg, got %T", msg)
	}
	if nm.Kind != tts.NotifyProgress || nm.Word != "hello" {
		t.Errorf("Unexpected notification %+v", nm.Notification)
	}

	close(ch)
	if msg := tts.WaitForNotificationCmd(ch)(); msg != (tts.NotificationsClosedMsg{}) {
		t.Errorf("Expected NotificationsClosedMsg, got %T", msg)
	}
}

// TestSpeakCmd tests that the speak command reports the outcome.
func TestSpeakCmd(t *testing.T) {
	f := newFixture(t, mock.New())
	ctx := context.Background()

	msg := tts.SpeakCmd(ctx, f.d, "hello", "en-US")()
	if done, ok := msg.(tts.SpeakDoneMsg); !ok || done.Err != nil {
		t.Errorf("Expected successful SpeakDoneMsg, got %#v", msg)
	}

	msg = tts.SpeakCmd(ctx, f.d, "hello", "zz-ZZ")()
	if done, ok := msg.(tts.SpeakDoneMsg); !ok || !errors.Is(done.Err, tts.ErrEngineUnavailable) {
		t.Errorf("Expected ErrEngineUnavailable, got %#v", msg)
	}
}

// TestTogglePauseCmd tests pausing and resuming through the toggle.
func TestTogglePauseCmd(t *testing.T) {
	f := newFixture(t, mock.New())
	ctx := context.Background()
	speak(t, f, "hello", "en-US")

	msg := tts.TogglePauseCmd(ctx, f.d, false, "hello", "en-US")()
	if paused, ok := msg.(tts.PausedMsg); !ok || !paused.OK {
		t.Fatalf("Expected successful PausedMsg, got %#v", msg)
	}
	if s := f.state(t, "en-US"); s != tts.StatePaused {
		t.Errorf("Expected paused, got %s", s)
	}

	msg = tts.TogglePauseCmd(ctx, f.d, true, "hello", "en-US")()
	if done, ok := msg.(tts.SpeakDoneMsg); !ok || done.Err != nil {
		t.Fatalf("Expected successful SpeakDoneMsg, got %#v", msg)
	}
	if s := f.state(t, "en-US"); s != tts.StateSpeaking {
		t.Errorf("Expected speaking, got %s", s)
	}
}

// TestStopCmd tests that the stop command idles every engine.
func TestStopCmd(t *testing.T) {
	f := newFixture(t, mock.New())
	speak(t, f, "hello", "en-US")

	if msg := tts.StopCmd(f.d)(); msg != (tts.StoppedMsg{}) {
		t.Errorf("Expected StoppedMsg, got %T", msg)
	}
	if s := f.state(t, "en-US"); s != tts.StateIdle {
		t.Errorf("Expected idle, got %s", s)
	}
}
