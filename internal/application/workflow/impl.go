package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openfleet/fleetflow/internal/application/dispatcher"
	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/event"
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	requestRepo port.RequestRepository
	actionRepo  port.ActionRepository
	routeRepo   port.RouteRepository
	quoteRepo   port.QuoteRepository
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	requestRepo port.RequestRepository,
	actionRepo port.ActionRepository,
	routeRepo port.RouteRepository,
	quoteRepo port.QuoteRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		requestRepo: requestRepo,
		actionRepo:  actionRepo,
		routeRepo:   routeRepo,
		quoteRepo:   quoteRepo,
		txManager:   txManager,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ProcessStage records an action on the request's current stage and advances it
func (e *engineImpl) ProcessStage(ctx context.Context, requestID, actingUserID string, input ProcessInput) (*ProcessResult, error) {
	req, route, err := e.loadActive(ctx, requestID)
	if err != nil {
		return nil, err
	}

	stage := req.CurrentStage

	// The skip rule is checked before any manual-input requirement: a
	// requestor who also owns the current stage is never blocked on their
	// own approval.
	outcome := OutcomeManualAction
	isOwner := route.IsOwner(stage, actingUserID)
	if req.RequestedByUserID == actingUserID && isOwner {
		outcome = OutcomeAutoSkipped
	}

	if !isOwner {
		return nil, fmt.Errorf("%w: user %s cannot act on stage %s", domainwf.ErrNotAuthorized, actingUserID, stage)
	}

	comments := input.Comments
	var quote *entity.Quote

	if outcome == OutcomeAutoSkipped {
		comments = SkipComment
	} else if commit := route.CommitStage(); commit != "" && strings.EqualFold(stage, commit) {
		if input.Quote == nil {
			return nil, fmt.Errorf("%w: stage %s", domainwf.ErrMissingCostCommitment, stage)
		}
		quote = &entity.Quote{
			RequestID:     requestID,
			LaborCost:     input.Quote.LaborCost,
			PartsCost:     input.Quote.PartsCost,
			TotalCost:     input.Quote.TotalCost,
			EstimatedTime: input.Quote.EstimatedTime,
			Notes:         input.Quote.Notes,
			SubmittedBy:   actingUserID,
			SubmittedAt:   time.Now(),
		}
		if !quote.CostsConsistent() {
			return nil, fmt.Errorf("%w: total %.2f, labor %.2f + parts %.2f", domainwf.ErrQuoteCostMismatch,
				quote.TotalCost, quote.LaborCost, quote.PartsCost)
		}
	}

	machine, err := BuildRequestMachine(route, domainwf.State(stage))
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, domainwf.TriggerAdvance); err != nil {
		return nil, err
	}

	nextState := machine.State()
	nextStage, status := e.resolveAdvance(req, route, stage, nextState)

	userName := input.UserName
	if userName == "" {
		userName = actingUserID
	}

	action := &entity.Action{
		RequestID:   requestID,
		Stage:       stage,
		UserID:      actingUserID,
		UserName:    userName,
		Comments:    comments,
		AutoSkipped: outcome == OutcomeAutoSkipped,
		Timestamp:   time.Now(),
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requestRepo.AdvanceStage(txCtx, requestID, nextStage, status, req.Version); err != nil {
			return err
		}
		if err := e.actionRepo.Create(txCtx, action); err != nil {
			return fmt.Errorf("failed to record action: %w", err)
		}
		if quote != nil {
			if err := e.quoteRepo.Create(txCtx, quote); err != nil {
				return fmt.Errorf("failed to record cost commitment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.CurrentStage = nextStage
	req.Status = status
	req.Version++
	now := time.Now()
	switch status {
	case entity.StatusApproved:
		req.ApprovedDate = &now
	case entity.StatusCompleted:
		req.CompletionDate = &now
	}

	e.emit(ctx, req, stage, nextState, outcome, quote)

	return &ProcessResult{
		Request: req,
		Outcome: outcome,
		Message: e.confirmationMessage(stage, nextState, outcome),
	}, nil
}

// Reject terminates the request from the final approval stage
func (e *engineImpl) Reject(ctx context.Context, requestID, actingUserID, actingUserName, reason string) (*entity.Request, error) {
	req, route, err := e.loadActive(ctx, requestID)
	if err != nil {
		return nil, err
	}

	stage := req.CurrentStage

	if !route.IsOwner(stage, actingUserID) {
		return nil, fmt.Errorf("%w: user %s cannot act on stage %s", domainwf.ErrNotAuthorized, actingUserID, stage)
	}

	if !strings.EqualFold(stage, route.RejectionStage()) {
		return nil, fmt.Errorf("%w: current stage %s", domainwf.ErrRejectionNotAllowed, stage)
	}

	machine, err := BuildRequestMachine(route, domainwf.State(stage))
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
		return nil, err
	}

	userName := actingUserName
	if userName == "" {
		userName = actingUserID
	}

	action := &entity.Action{
		RequestID:       requestID,
		Stage:           stage,
		UserID:          actingUserID,
		UserName:        userName,
		Comments:        reason,
		RejectionReason: reason,
		Timestamp:       time.Now(),
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requestRepo.MarkRejected(txCtx, requestID, reason, actingUserID, req.Version); err != nil {
			return err
		}
		return e.actionRepo.Create(txCtx, action)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req.Status = entity.StatusRejected
	req.RejectionReason = reason
	req.RejectedBy = actingUserID
	req.RejectedAt = &now
	req.Version++

	if e.dispatcher != nil {
		e.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestRejected, requestID, map[string]interface{}{
			"stage":       stage,
			"reason":      reason,
			"rejected_by": actingUserID,
		}))
	}

	return req, nil
}

// loadActive fetches the request and its route, rejecting terminal requests
func (e *engineImpl) loadActive(ctx context.Context, requestID string) (*entity.Request, *domainwf.Route, error) {
	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, fmt.Errorf("%w: %s", domainwf.ErrRequestNotFound, requestID)
	}
	if req.IsTerminal() {
		return nil, nil, fmt.Errorf("%w: status %s", domainwf.ErrAlreadyTerminal, req.Status)
	}

	route, err := e.routeRepo.GetByDepartmentAndKind(ctx, req.Department, req.Kind)
	if err != nil {
		return nil, nil, err
	}

	if route.StageIndex(req.CurrentStage) < 0 {
		return nil, nil, fmt.Errorf("request %s stage %q is not part of route %s/%s",
			requestID, req.CurrentStage, route.Department, route.Kind)
	}

	return req, route, nil
}

// resolveAdvance maps the machine's next state onto the stored stage/status pair
func (e *engineImpl) resolveAdvance(req *entity.Request, route *domainwf.Route, completedStage string, next domainwf.State) (string, entity.RequestStatus) {
	if next == domainwf.StateCompleted {
		// Stage stays at the final entry; completion is carried by status
		return completedStage, entity.StatusCompleted
	}

	status := req.Status
	if strings.EqualFold(completedStage, route.RejectionStage()) {
		status = entity.StatusApproved
	}

	return next.String(), status
}

// confirmationMessage builds the human-readable result for the caller
func (e *engineImpl) confirmationMessage(stage string, next domainwf.State, outcome Outcome) string {
	if next == domainwf.StateCompleted {
		return fmt.Sprintf("Stage %s completed; request is now complete", stage)
	}
	if outcome == OutcomeAutoSkipped {
		return fmt.Sprintf("Stage %s automatically skipped; request moved to %s", stage, next)
	}
	return fmt.Sprintf("Stage %s completed; request moved to %s", stage, next)
}

// emit publishes post-transition events; failures are downstream-only.
// Events from one transition share a correlation ID.
func (e *engineImpl) emit(ctx context.Context, req *entity.Request, completedStage string, next domainwf.State, outcome Outcome, quote *entity.Quote) {
	if e.dispatcher == nil {
		return
	}

	advanced := event.NewEvent(event.TypeStageAdvanced, req.ID, nil).
		WithPayload("completed_stage", completedStage).
		WithPayload("current_stage", req.CurrentStage).
		WithPayload("auto_skipped", outcome == OutcomeAutoSkipped)
	e.dispatcher.DispatchAsync(ctx, advanced)

	if quote != nil {
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeQuoteSubmitted, req.ID, map[string]interface{}{
			"total_cost": quote.TotalCost,
		}, advanced.CorrelationID))
	}

	switch {
	case next == domainwf.StateCompleted:
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeRequestCompleted, req.ID, nil, advanced.CorrelationID))
	case req.Status == entity.StatusApproved:
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeRequestApproved, req.ID, nil, advanced.CorrelationID))
	}
}
