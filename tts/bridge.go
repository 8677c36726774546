package tts

// EventKind identifies a synthesizer delegate event.
type EventKind int

const (
	// EventStart is reported when an utterance starts.
	EventStart EventKind = iota
	// EventRange is reported before each word is spoken.
	EventRange
	// EventPause is reported when output pauses.
	EventPause
	// EventContinue is reported when paused output resumes.
	EventContinue
	// EventFinish is the terminal event of a completed utterance.
	EventFinish
	// EventCancel is the terminal event of a discarded utterance.
	EventCancel
	// EventBuffer carries rendered PCM for a Write request.
	EventBuffer
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventRange:
		return "range"
	case EventPause:
		return "pause"
	case EventContinue:
		return "continue"
	case EventFinish:
		return "finish"
	case EventCancel:
		return "cancel"
	case EventBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends an utterance.
func (k EventKind) Terminal() bool {
	return k == EventFinish || k == EventCancel
}

// Event is reported by a synthesizer about one of its utterances.
type Event struct {
	Kind      EventKind
	Utterance string // Utterance ID
	Start     int    // Range start, byte offset into the utterance text
	End       int    // Range end, exclusive
	Buffer    []byte // PCM for EventBuffer; empty marks end of stream
}

// EventSink receives the events of one synthesizer. It is bound to a
// LanguageKey when the synthesizer is created and never blocks.
type EventSink func(ev Event)

// NotificationKind identifies an outbound lifecycle notification.
type NotificationKind string

// Notification kinds, named after the host callbacks they map to.
const (
	NotifyStart    NotificationKind = "onStart"
	NotifyProgress NotificationKind = "onProgress"
	NotifyPause    NotificationKind = "onPause"
	NotifyContinue NotificationKind = "onContinue"
	NotifyCancel   NotificationKind = "onCancel"
	NotifyComplete NotificationKind = "onComplete"
)

// Notification is emitted for every lifecycle event of live output. Start
// and End are byte offsets into Text.
type Notification struct {
	Kind      NotificationKind `json:"-"`
	Language  string           `json:"language"`
	Utterance string           `json:"utterance"`
	Text      string           `json:"text,omitempty"`
	Start     int              `json:"start,omitempty"`
	End       int              `json:"end,omitempty"`
	Word      string           `json:"word,omitempty"`
}

// LifecycleBridge translates synthesizer events into notifications and
// pending result resolution.
type LifecycleBridge struct {
	pending *PendingResultTracker
	emit    func(Notification)
}

// NewLifecycleBridge creates a bridge resolving through pending and
// emitting through emit.
func NewLifecycleBridge(pending *PendingResultTracker, emit func(Notification)) *LifecycleBridge {
	return &LifecycleBridge{pending: pending, emit: emit}
}

// Deliver handles ev for utterance u spoken in language.
func (b *LifecycleBridge) Deliver(language string, u Utterance, ev Event) {
	n := Notification{Language: language, Utterance: u.ID}

	switch ev.Kind {
	case EventStart:
		n.Kind = NotifyStart
	case EventRange:
		start, end := clampRange(ev.Start, ev.End, len(u.Text))
		n.Kind = NotifyProgress
		n.Text = u.Text
		n.Start = start
		n.End = end
		n.Word = u.Text[start:end]
	case EventPause:
		n.Kind = NotifyPause
	case EventContinue:
		n.Kind = NotifyContinue
	case EventFinish:
		b.pending.ResolveUtterance(ChannelSpeak, u.ID, nil)
		b.pending.ResolveUtterance(ChannelSynthToFile, u.ID, nil)
		n.Kind = NotifyComplete
	case EventCancel:
		b.pending.ResolveUtterance(ChannelSpeak, u.ID, ErrCanceled)
		b.pending.ResolveUtterance(ChannelSynthToFile, u.ID, ErrCanceled)
		n.Kind = NotifyCancel
	default:
		return
	}

	b.emit(n)
}

func clampRange(start, end, n int) (int, int) {
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return start, end
}
