package workflow

import (
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// BuildRequestMachine creates a state machine for one route: a linear advance
// through the route's stages, with completion after the last stage and a
// single exit to REJECTED from the rejection stage.
func BuildRequestMachine(route *domainwf.Route, initial domainwf.State) (domainwf.StateMachine, error) {
	builder := domainwf.NewBuilder()

	for i, stage := range route.Stages {
		cfg := builder.Configure(domainwf.State(stage))

		if i+1 < len(route.Stages) {
			cfg.Permit(domainwf.TriggerAdvance, domainwf.State(route.Stages[i+1]))
		} else {
			cfg.Permit(domainwf.TriggerAdvance, domainwf.StateCompleted)
		}
	}

	// Rejection exits only from the final approval stage
	if rs := route.RejectionStage(); rs != "" {
		builder.Configure(domainwf.State(rs)).
			Permit(domainwf.TriggerReject, domainwf.StateRejected)
	}

	// COMPLETED and REJECTED are terminal - no outgoing transitions

	return builder.Build(initial)
}
