package workflow

// State represents one node of a request's workflow: either a route stage
// name or one of the two terminal pseudo-states.
type State string

const (
	// StateCompleted is the terminal-success state reached after the last
	// route stage is processed.
	StateCompleted State = "COMPLETED"

	// StateRejected is the terminal-failure state reached by explicit
	// rejection at the final approval stage.
	StateRejected State = "REJECTED"
)

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateRejected
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
