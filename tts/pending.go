package tts

// Channel names a pending result slot.
type Channel int

const (
	// ChannelSpeak holds the continuation of an awaited speak request.
	ChannelSpeak Channel = iota
	// ChannelSynthToFile holds the continuation of an awaited file render.
	ChannelSynthToFile
)

// String returns the string representation of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelSpeak:
		return "speak"
	case ChannelSynthToFile:
		return "synthToFile"
	default:
		return "unknown"
	}
}

type pendingResult struct {
	utterance string
	done      Completion
}

// PendingResultTracker holds at most one outstanding continuation per
// channel. A continuation is cleared before it is invoked, so it runs at
// most once.
type PendingResultTracker struct {
	slots  [2]*pendingResult
	invoke func(Completion, error)
}

// NewPendingResultTracker creates a tracker that runs continuations through
// invoke. A nil invoke calls them directly.
func NewPendingResultTracker(invoke func(Completion, error)) *PendingResultTracker {
	if invoke == nil {
		invoke = func(done Completion, err error) { done(err) }
	}
	return &PendingResultTracker{invoke: invoke}
}

// Set stores done as the continuation of utterance on ch. A continuation
// it replaces is resolved with ErrSuperseded.
func (t *PendingResultTracker) Set(ch Channel, utterance string, done Completion) {
	prev := t.slots[ch]
	if done == nil {
		t.slots[ch] = nil
	} else {
		t.slots[ch] = &pendingResult{utterance: utterance, done: done}
	}
	if prev != nil {
		t.invoke(prev.done, ErrSuperseded)
	}
}

// Pending reports the utterance awaiting a result on ch.
func (t *PendingResultTracker) Pending(ch Channel) (string, bool) {
	p := t.slots[ch]
	if p == nil {
		return "", false
	}
	return p.utterance, true
}

// Resolve takes the continuation on ch, if any, and invokes it with err.
func (t *PendingResultTracker) Resolve(ch Channel, err error) bool {
	p := t.slots[ch]
	if p == nil {
		return false
	}
	t.slots[ch] = nil
	t.invoke(p.done, err)
	return true
}

// ResolveUtterance resolves ch only if its continuation belongs to
// utterance.
func (t *PendingResultTracker) ResolveUtterance(ch Channel, utterance string, err error) bool {
	p := t.slots[ch]
	if p == nil || p.utterance != utterance {
		return false
	}
	return t.Resolve(ch, err)
}

// ResolveAll resolves every outstanding continuation with err.
func (t *PendingResultTracker) ResolveAll(err error) {
	t.Resolve(ChannelSpeak, err)
	t.Resolve(ChannelSynthToFile, err)
}
