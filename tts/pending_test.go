package tts

import (
	"errors"
	"testing"
)

type completionLog struct {
	results []error
}

func (l *completionLog) done(err error) { l.results = append(l.results, err) }

// TestPendingResolveOnce tests that a continuation runs at most once.
func TestPendingResolveOnce(t *testing.T) {
	p := NewPendingResultTracker(nil)
	var log completionLog

	p.Set(ChannelSpeak, "u1", log.done)
	if id, ok := p.Pending(ChannelSpeak); !ok || id != "u1" {
		t.Errorf("Pending() = %q, %v; want u1", id, ok)
	}

	if !p.ResolveUtterance(ChannelSpeak, "u1", nil) {
		t.Error("First resolve should succeed")
	}
	if p.ResolveUtterance(ChannelSpeak, "u1", nil) {
		t.Error("Second resolve should be a no-op")
	}
	if len(log.results) != 1 || log.results[0] != nil {
		t.Errorf("Expected one nil result, got %v", log.results)
	}
	if _, ok := p.Pending(ChannelSpeak); ok {
		t.Error("Slot should be empty after resolve")
	}
}

// TestPendingChannelsIndependent tests that channels do not interfere.
func TestPendingChannelsIndependent(t *testing.T) {
	p := NewPendingResultTracker(nil)
	var speak, synth completionLog

	p.Set(ChannelSpeak, "u1", speak.done)
	p.Set(ChannelSynthToFile, "u1", synth.done)

	p.Resolve(ChannelSynthToFile, ErrFileWrite)
	if len(speak.results) != 0 {
		t.Error("Speak channel should be untouched")
	}
	if len(synth.results) != 1 || !errors.Is(synth.results[0], ErrFileWrite) {
		t.Errorf("Expected ErrFileWrite, got %v", synth.results)
	}
}

// TestPendingSupersede tests replacing an outstanding continuation.
func TestPendingSupersede(t *testing.T) {
	p := NewPendingResultTracker(nil)
	var first, second completionLog

	p.Set(ChannelSpeak, "u1", first.done)
	p.Set(ChannelSpeak, "u2", second.done)
	if len(first.results) != 1 || !errors.Is(first.results[0], ErrSuperseded) {
		t.Errorf("Expected the first continuation to be superseded, got %v", first.results)
	}

	// A terminal event for the replaced utterance resolves nothing.
	if p.ResolveUtterance(ChannelSpeak, "u1", nil) {
		t.Error("Resolve for u1 should not match u2")
	}
	p.ResolveUtterance(ChannelSpeak, "u2", nil)
	if len(second.results) != 1 || second.results[0] != nil {
		t.Errorf("Expected u2 to succeed, got %v", second.results)
	}
}

// TestPendingClear tests clearing a slot with a nil continuation.
func TestPendingClear(t *testing.T) {
	p := NewPendingResultTracker(nil)
	var log completionLog

	p.Set(ChannelSpeak, "u1", log.done)
	p.Set(ChannelSpeak, "", nil)
	if _, ok := p.Pending(ChannelSpeak); ok {
		t.Error("Slot should be empty")
	}
	if len(log.results) != 1 || !errors.Is(log.results[0], ErrSuperseded) {
		t.Errorf("Cleared continuation should be superseded, got %v", log.results)
	}
}

// TestPendingResolveAll tests resolving both channels.
func TestPendingResolveAll(t *testing.T) {
	var invoked int
	p := NewPendingResultTracker(func(done Completion, err error) {
		invoked++
		done(err)
	})
	var speak, synth completionLog
	p.Set(ChannelSpeak, "a", speak.done)
	p.Set(ChannelSynthToFile, "b", synth.done)

	p.ResolveAll(ErrClosed)
	if invoked != 2 {
		t.Errorf("Expected 2 invocations through the invoker, got %d", invoked)
	}
	if !errors.Is(speak.results[0], ErrClosed) || !errors.Is(synth.results[0], ErrClosed) {
		t.Error("Expected ErrClosed on both channels")
	}
	if p.Resolve(ChannelSpeak, nil) {
		t.Error("Nothing should be pending after ResolveAll")
	}
}

// TestChannelString tests channel names.
func TestChannelString(t *testing.T) {
	if ChannelSpeak.String() != "speak" || ChannelSynthToFile.String() != "synthToFile" {
		t.Error("Unexpected channel names")
	}
	if Channel(7).String() != "unknown" {
		t.Error("Unknown channel should be named unknown")
	}
}
