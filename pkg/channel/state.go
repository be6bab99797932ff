package channel

import "fmt"

// State is the channel's lifecycle state. paused -> running (resume),
// running -> paused (pause), any -> stopped (stop). stopped is
// absorbing.
type State int

const (
	// Paused is the initial state: no reads are scheduled.
	Paused State = iota
	// Running is actively reading and dispatching frames.
	Running
	// Stopped is terminal.
	Stopped
)

func (s State) String() string {
	switch s {
	case Paused:
		return "Paused"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

var validTransitions = map[State][]State{
	Paused:  {Running, Stopped},
	Running: {Paused, Stopped},
	Stopped: {},
}

// CanTransitionTo reports whether s -> target is a legal channel
// transition.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
