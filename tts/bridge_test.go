package tts

import (
	"errors"
	"testing"
)

func newTestBridge() (*LifecycleBridge, *PendingResultTracker, *[]Notification) {
	var sent []Notification
	pending := NewPendingResultTracker(nil)
	return NewLifecycleBridge(pending, func(n Notification) { sent = append(sent, n) }), pending, &sent
}

// TestBridgeNotifications tests the event to notification mapping.
func TestBridgeNotifications(t *testing.T) {
	u := Utterance{ID: "u1", Text: "hello world"}

	tests := []struct {
		ev   Event
		kind NotificationKind
	}{
		{Event{Kind: EventStart}, NotifyStart},
		{Event{Kind: EventRange, Start: 0, End: 5}, NotifyProgress},
		{Event{Kind: EventPause}, NotifyPause},
		{Event{Kind: EventContinue}, NotifyContinue},
		{Event{Kind: EventCancel}, NotifyCancel},
		{Event{Kind: EventFinish}, NotifyComplete},
	}

	for _, tt := range tests {
		t.Run(tt.ev.Kind.String(), func(t *testing.T) {
			b, _, sent := newTestBridge()
			tt.ev.Utterance = u.ID
			b.Deliver("en-US", u, tt.ev)

			if len(*sent) != 1 {
				t.Fatalf("Expected 1 notification, got %d", len(*sent))
			}
			n := (*sent)[0]
			if n.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", n.Kind, tt.kind)
			}
			if n.Language != "en-US" || n.Utterance != "u1" {
				t.Errorf("Unexpected notification %+v", n)
			}
		})
	}
}

// TestBridgeProgress tests word extraction and range clamping.
func TestBridgeProgress(t *testing.T) {
	u := Utterance{ID: "u1", Text: "hello world"}

	tests := []struct {
		name       string
		start, end int
		word       string
	}{
		{"first word", 0, 5, "hello"},
		{"second word", 6, 11, "world"},
		{"end past text", 6, 99, "world"},
		{"negative start", -3, 5, "hello"},
		{"inverted", 8, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, sent := newTestBridge()
			b.Deliver("en-US", u, Event{Kind: EventRange, Utterance: u.ID, Start: tt.start, End: tt.end})

			n := (*sent)[0]
			if n.Word != tt.word {
				t.Errorf("Word = %q, want %q", n.Word, tt.word)
			}
			if n.Text != u.Text {
				t.Errorf("Text = %q, want %q", n.Text, u.Text)
			}
			if n.Start < 0 || n.End > len(u.Text) || n.Start > n.End {
				t.Errorf("Range [%d, %d) not clamped", n.Start, n.End)
			}
		})
	}
}

// TestBridgeResolvesPending tests terminal events resolving both channels.
func TestBridgeResolvesPending(t *testing.T) {
	tests := []struct {
		kind EventKind
		want error
	}{
		{EventFinish, nil},
		{EventCancel, ErrCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			b, pending, _ := newTestBridge()
			var speak, synth completionLog
			pending.Set(ChannelSpeak, "u1", speak.done)
			pending.Set(ChannelSynthToFile, "u1", synth.done)

			b.Deliver("en-US", Utterance{ID: "u1"}, Event{Kind: tt.kind, Utterance: "u1"})
			b.Deliver("en-US", Utterance{ID: "u1"}, Event{Kind: tt.kind, Utterance: "u1"})

			for _, results := range [][]error{speak.results, synth.results} {
				if len(results) != 1 {
					t.Fatalf("Expected exactly one result, got %v", results)
				}
				if !errors.Is(results[0], tt.want) {
					t.Errorf("Expected %v, got %v", tt.want, results[0])
				}
			}
		})
	}
}

// TestBridgeOtherUtterance tests that terminal events for another
// utterance leave pending results alone.
func TestBridgeOtherUtterance(t *testing.T) {
	b, pending, _ := newTestBridge()
	var log completionLog
	pending.Set(ChannelSpeak, "mine", log.done)

	b.Deliver("en-US", Utterance{ID: "other"}, Event{Kind: EventFinish, Utterance: "other"})
	if len(log.results) != 0 {
		t.Errorf("Expected no result, got %v", log.results)
	}
}

// TestBridgeIgnoresBuffers tests that buffers are not notified.
func TestBridgeIgnoresBuffers(t *testing.T) {
	b, _, sent := newTestBridge()
	b.Deliver("en-US", Utterance{ID: "u1"}, Event{Kind: EventBuffer, Utterance: "u1", Buffer: []byte{1}})
	if len(*sent) != 0 {
		t.Errorf("Expected no notifications, got %v", *sent)
	}
}

// TestEventKind tests kind names and terminal classification.
func TestEventKind(t *testing.T) {
	for _, k := range []EventKind{EventStart, EventRange, EventPause, EventContinue, EventBuffer} {
		if k.Terminal() {
			t.Errorf("%s should not be terminal", k)
		}
	}
	if !EventFinish.Terminal() || !EventCancel.Terminal() {
		t.Error("Finish and cancel should be terminal")
	}
	if EventKind(42).String() != "unknown" {
		t.Error("Unknown kind should be named unknown")
	}
}
