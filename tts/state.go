package tts

// EngineState represents the live-output state of one engine.
type EngineState int

const (
	// StateIdle indicates the engine has no utterance in flight.
	StateIdle EngineState = iota
	// StateSpeaking indicates the engine is producing live output.
	StateSpeaking
	// StatePaused indicates live output is paused mid-utterance.
	StatePaused
)

// String returns the string representation of the state.
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// IsActive returns true if the engine holds an utterance.
func (s EngineState) IsActive() bool {
	return s == StateSpeaking || s == StatePaused
}

// StateMachine manages state transitions for one engine.
type StateMachine struct {
	current     EngineState
	transitions map[EngineState][]EngineState
	onEnter     map[EngineState]func()
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[EngineState][]EngineState{
			StateIdle:     {StateSpeaking},
			StateSpeaking: {StatePaused, StateIdle},
			StatePaused:   {StateSpeaking, StateIdle},
		},
		onEnter: make(map[EngineState]func()),
	}
}

// Transition attempts to transition to the specified state. Transitioning
// to the current state is a no-op that reports success.
func (sm *StateMachine) Transition(to EngineState) bool {
	if sm.current == to {
		return true
	}

	valid := false
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn()
	}

	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() EngineState {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state EngineState, fn func()) {
	sm.onEnter[state] = fn
}
