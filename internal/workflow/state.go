package workflow

import "errors"

// State is the position of a review session.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateReviewing  State = "reviewing"
	StateSaving     State = "saving"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Action is a network step that Retry can repeat.
type Action string

const (
	ActionNone     Action = ""
	ActionGenerate Action = "generate"
	ActionSave     Action = "save"
)

// ErrInvalidTransition is returned when an operation is called from a state
// that does not define it. The session is left untouched.
var ErrInvalidTransition = errors.New("workflow: operation not allowed in current state")

// ErrSessionReset is returned by an in-flight Generate or Save whose result
// was discarded because Reset ran while it was waiting.
var ErrSessionReset = errors.New("workflow: session was reset")

// transitions lists every edge of the session graph. Reset is handled
// separately since it leaves any state for idle.
var transitions = map[State][]State{
	StateIdle:       {StateGenerating, StateError},
	StateGenerating: {StateReviewing, StateError},
	StateReviewing:  {StateSaving, StateError},
	StateSaving:     {StateSuccess, StateError},
	StateSuccess:    {},
	StateError:      {StateGenerating, StateSaving, StateError},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
