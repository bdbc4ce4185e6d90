package workflow

import (
	"context"
	"fmt"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// StatusProjector derives the WorkflowStatus read-model from a request's
// action history. The projection is recomputed on every call and never
// cached: any cached copy is stale the moment a new action lands.
type StatusProjector interface {
	Project(ctx context.Context, requestID string) (*entity.WorkflowStatus, error)
}

type statusProjectorImpl struct {
	requestRepo port.RequestRepository
	actionRepo  port.ActionRepository
	routeRepo   port.RouteRepository
}

// NewStatusProjector creates a new StatusProjector
func NewStatusProjector(
	requestRepo port.RequestRepository,
	actionRepo port.ActionRepository,
	routeRepo port.RouteRepository,
) StatusProjector {
	return &statusProjectorImpl{
		requestRepo: requestRepo,
		actionRepo:  actionRepo,
		routeRepo:   routeRepo,
	}
}

// Project builds the WorkflowStatus for a request
func (p *statusProjectorImpl) Project(ctx context.Context, requestID string) (*entity.WorkflowStatus, error) {
	req, err := p.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrRequestNotFound, requestID)
	}

	route, err := p.routeRepo.GetByDepartmentAndKind(ctx, req.Department, req.Kind)
	if err != nil {
		return nil, err
	}

	actions, err := p.actionRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string][]*entity.Action)
	actedOnCurrent := make(map[string]bool)
	for _, a := range actions {
		completed[a.Stage] = append(completed[a.Stage], a)
		if a.Stage == req.CurrentStage {
			actedOnCurrent[a.UserID] = true
		}
	}

	status := &entity.WorkflowStatus{
		RequestID:        requestID,
		CurrentStage:     req.CurrentStage,
		Status:           req.Status,
		CompletedActions: completed,
		PendingActions:   []entity.PendingAction{},
	}

	// Terminal requests have nothing pending
	if req.IsTerminal() {
		return status, nil
	}

	for _, owner := range route.Owners(req.CurrentStage) {
		status.PendingActions = append(status.PendingActions, entity.PendingAction{
			UserID:    owner.UserID,
			UserName:  owner.UserName,
			Role:      owner.Role,
			IsPending: !actedOnCurrent[owner.UserID],
		})
	}

	return status, nil
}
