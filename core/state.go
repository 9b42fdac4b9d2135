package core

// State is a Job's runtime state. The numeric values are part of the wire
// format (serialized documents embed them directly) and must not be
// renumbered.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSuccess
	StateFailed
	StateCancelled
	StateUndef
	StateReset
	StateBlocked
)

// states enumerates every valid State value, used to size/iterate the
// per-job latch set and to validate incoming state assignments.
var states = [...]State{
	StateIdle,
	StateRunning,
	StateSuccess,
	StateFailed,
	StateCancelled,
	StateUndef,
	StateReset,
	StateBlocked,
}

func (s State) valid() bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}
	return false
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateSuccess:
		return "SUCCESS"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	case StateUndef:
		return "UNDEF"
	case StateReset:
		return "RESET"
	case StateBlocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// doneStates, successStates and preStartStates partition the state space
// for scheduling purposes. RESET is not itself a PRE-START member; a job
// leaves RESET for IDLE on its next Start and is then scheduled like any
// IDLE job.
var doneStates = map[State]bool{
	StateSuccess:   true,
	StateFailed:    true,
	StateCancelled: true,
	StateUndef:     true,
}

var successStates = map[State]bool{
	StateSuccess: true,
	StateUndef:   true,
}

var preStartStates = map[State]bool{
	StateIdle:    true,
	StateUndef:   true,
	StateBlocked: true,
}

func isDone(s State) bool     { return doneStates[s] }
func isSuccess(s State) bool  { return successStates[s] }
func isPreStart(s State) bool { return preStartStates[s] }

// StateColors is the fixed color table keyed on state value, used by the
// dot/SVG renderer and the JSON status projection.
var StateColors = map[State]string{
	StateIdle:      "white",
	StateRunning:   "yellow",
	StateSuccess:   "lawngreen",
	StateFailed:    "red",
	StateCancelled: "deepskyblue",
	StateUndef:     "gray",
	StateBlocked:   "darkorange",
	StateReset:     "white",
}
