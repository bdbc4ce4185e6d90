package workflow

import (
	"context"

	"github.com/openfleet/fleetflow/internal/domain/entity"
)

// Outcome tags how a stage transition was recorded
type Outcome string

const (
	// OutcomeManualAction is a transition driven by an explicit user action
	OutcomeManualAction Outcome = "ManualAction"

	// OutcomeAutoSkipped is a transition recorded by the self-requestor skip
	// rule without manual input
	OutcomeAutoSkipped Outcome = "AutoSkipped"
)

// SkipComment is the synthetic comment recorded when the skip rule fires
const SkipComment = "Automatically skipped"

// QuoteInput is the cost-commitment payload accepted at the commit stage
type QuoteInput struct {
	LaborCost     float64 `json:"labor_cost"`
	PartsCost     float64 `json:"parts_cost"`
	TotalCost     float64 `json:"total_cost"`
	EstimatedTime string  `json:"estimated_time"`
	Notes         string  `json:"notes"`
}

// ProcessInput carries the acting user's manual payload for a stage action
type ProcessInput struct {
	UserName string
	Comments string
	Quote    *QuoteInput
}

// ProcessResult is the engine's confirmation of a recorded transition
type ProcessResult struct {
	Request *entity.Request
	Outcome Outcome
	Message string
}

// Engine enforces the stage state machine: it validates authorization for the
// current stage, applies the self-requestor skip rule, records the action and
// advances the request.
type Engine interface {
	// ProcessStage records an action on the request's current stage and
	// advances it, or completes the request when the stage was the last.
	ProcessStage(ctx context.Context, requestID, actingUserID string, input ProcessInput) (*ProcessResult, error)

	// Reject terminates the request from the final approval stage
	Reject(ctx context.Context, requestID, actingUserID, actingUserName, reason string) (*entity.Request, error)
}
