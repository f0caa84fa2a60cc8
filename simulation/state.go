package simulation

import "fmt"

// State is a step of the run lifecycle.
type State int32

// Lifecycle states, in the order a run goes through them.
const (
	Initializing State = iota
	Running
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
