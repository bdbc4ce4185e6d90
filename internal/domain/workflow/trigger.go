package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerAdvance moves a request from its current stage to the next
	// entry in the route's stage list.
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerReject terminates a request from the final approval stage.
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
