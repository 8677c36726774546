package tts

import "testing"

// TestEngineStateString tests the String() method for EngineState.
func TestEngineStateString(t *testing.T) {
	tests := []struct {
		state    EngineState
		expected string
	}{
		{StateIdle, "idle"},
		{StateSpeaking, "speaking"},
		{StatePaused, "paused"},
		{EngineState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.state.String(); result != tt.expected {
				t.Errorf("EngineState.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestEngineStateIsActive tests the IsActive() method.
func TestEngineStateIsActive(t *testing.T) {
	tests := []struct {
		state    EngineState
		expected bool
	}{
		{StateIdle, false},
		{StateSpeaking, true},
		{StatePaused, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if result := tt.state.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestStateMachineTransitions tests valid and invalid transitions.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     []EngineState // Path taken from idle before the transition
		to       EngineState
		expected bool
	}{
		{"idle to speaking", nil, StateSpeaking, true},
		{"idle to paused", nil, StatePaused, false},
		{"idle to idle", nil, StateIdle, true},
		{"speaking to paused", []EngineState{StateSpeaking}, StatePaused, true},
		{"speaking to idle", []EngineState{StateSpeaking}, StateIdle, true},
		{"paused to speaking", []EngineState{StateSpeaking, StatePaused}, StateSpeaking, true},
		{"paused to idle", []EngineState{StateSpeaking, StatePaused}, StateIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for _, s := range tt.from {
				if !sm.Transition(s) {
					t.Fatalf("setup transition to %s failed", s)
				}
			}
			if result := sm.Transition(tt.to); result != tt.expected {
				t.Errorf("Transition(%s) = %v, want %v", tt.to, result, tt.expected)
			}
			if tt.expected && sm.Current() != tt.to {
				t.Errorf("Current() = %s, want %s", sm.Current(), tt.to)
			}
		})
	}
}

// TestStateMachineOnEnter tests enter callbacks.
func TestStateMachineOnEnter(t *testing.T) {
	sm := NewStateMachine()
	entered := 0
	sm.OnEnter(StatePaused, func() { entered++ })

	sm.Transition(StateSpeaking)
	sm.Transition(StatePaused)
	sm.Transition(StatePaused) // No-op, already paused

	if entered != 1 {
		t.Errorf("Expected 1 enter callback, got %d", entered)
	}
}
