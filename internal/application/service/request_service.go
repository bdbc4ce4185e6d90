package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openfleet/fleetflow/internal/application/dispatcher"
	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/event"
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// ErrValidation marks rejected submission input
var ErrValidation = errors.New("validation failed")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateRequestInput carries the submission payload for a new request
type CreateRequestInput struct {
	Kind            entity.RequestKind
	Priority        entity.Priority
	Department      string
	Description     string
	RequestedBy     string
	RequestedByName string
	VehicleID       *string
}

// RequestService manages fleet requests and their list queries
type RequestService interface {
	Create(ctx context.Context, input CreateRequestInput) (*entity.Request, error)
	Get(ctx context.Context, id string) (*entity.Request, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Request, error)
	ListAssignments(ctx context.Context, limit, offset int) ([]*entity.Request, error)
	ListByRequestor(ctx context.Context, userID string, limit, offset int) ([]*entity.Request, error)

	// ListPendingForUser returns active requests whose current stage the
	// given user owns.
	ListPendingForUser(ctx context.Context, userID string) ([]*entity.Request, error)

	// GetComments returns the ordered Comment-stage actions of a request
	GetComments(ctx context.Context, requestID string) ([]*entity.Action, error)

	// ListVehicles returns fleet vehicles for request submission
	ListVehicles(ctx context.Context, limit, offset int) ([]*entity.Vehicle, error)
}

type requestServiceImpl struct {
	requestRepo port.RequestRepository
	actionRepo  port.ActionRepository
	routeRepo   port.RouteRepository
	vehicleRepo port.VehicleRepository
	dispatcher  dispatcher.Dispatcher
	logger      Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo port.RequestRepository,
	actionRepo port.ActionRepository,
	routeRepo port.RouteRepository,
	vehicleRepo port.VehicleRepository,
	disp dispatcher.Dispatcher,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		requestRepo: requestRepo,
		actionRepo:  actionRepo,
		routeRepo:   routeRepo,
		vehicleRepo: vehicleRepo,
		dispatcher:  disp,
		logger:      logger,
	}
}

// Create submits a new request at its route's initial stage
func (s *requestServiceImpl) Create(ctx context.Context, input CreateRequestInput) (*entity.Request, error) {
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid request kind: %s", ErrValidation, input.Kind)
	}
	if input.Department == "" {
		return nil, fmt.Errorf("%w: department is required", ErrValidation)
	}
	if input.RequestedBy == "" {
		return nil, fmt.Errorf("%w: requestor is required", ErrValidation)
	}
	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: invalid priority: %s", ErrValidation, priority)
	}

	// Unknown department fails here, before anything is persisted
	route, err := s.routeRepo.GetByDepartmentAndKind(ctx, input.Department, input.Kind)
	if err != nil {
		return nil, err
	}

	if input.VehicleID != nil {
		vehicle, err := s.vehicleRepo.GetByID(ctx, *input.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up vehicle: %w", err)
		}
		if vehicle == nil {
			return nil, fmt.Errorf("%w: vehicle not found: %s", ErrValidation, *input.VehicleID)
		}
	}

	now := time.Now()
	req := &entity.Request{
		ID:                uuid.NewString(),
		Kind:              input.Kind,
		Status:            entity.StatusPending,
		Priority:          priority,
		CurrentStage:      route.InitialStage(),
		Department:        input.Department,
		Description:       input.Description,
		RequestedByUserID: input.RequestedBy,
		RequestedByName:   input.RequestedByName,
		VehicleID:         input.VehicleID,
		RequestDate:       now,
		Version:           1,
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		s.logger.Error("Failed to create request", "error", err, "department", input.Department)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("Request created",
		"request_id", req.ID,
		"kind", req.Kind,
		"department", req.Department,
		"stage", req.CurrentStage,
	)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeRequestCreated, req.ID, map[string]interface{}{
			"kind":       req.Kind.String(),
			"department": req.Department,
		}))
	}

	return req, nil
}

// Get retrieves a request by ID
func (s *requestServiceImpl) Get(ctx context.Context, id string) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrRequestNotFound, id)
	}
	return req, nil
}

// List retrieves requests with pagination
func (s *requestServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.List(ctx, normalizeLimit(limit), offset)
}

// ListAssignments retrieves vehicle-assignment requests
func (s *requestServiceImpl) ListAssignments(ctx context.Context, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.ListByKind(ctx, entity.KindVehicleAssignment, normalizeLimit(limit), offset)
}

// ListByRequestor retrieves a user's own requests
func (s *requestServiceImpl) ListByRequestor(ctx context.Context, userID string, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.ListByRequestor(ctx, userID, normalizeLimit(limit), offset)
}

// ListPendingForUser filters active requests down to those whose current
// stage the user owns. Routes are resolved once per department/kind pair.
func (s *requestServiceImpl) ListPendingForUser(ctx context.Context, userID string) ([]*entity.Request, error) {
	active, err := s.requestRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	routes := make(map[string]*domainwf.Route)
	pending := []*entity.Request{}

	for _, req := range active {
		key := req.Department + "/" + req.Kind.String()
		route, ok := routes[key]
		if !ok {
			route, err = s.routeRepo.GetByDepartmentAndKind(ctx, req.Department, req.Kind)
			if err != nil {
				// A request whose route was removed is unactionable, not fatal
				s.logger.Error("Skipping request with unresolvable route",
					"request_id", req.ID, "department", req.Department, "error", err)
				continue
			}
			routes[key] = route
		}

		if route.IsOwner(req.CurrentStage, userID) {
			pending = append(pending, req)
		}
	}

	return pending, nil
}

// GetComments returns the ordered Comment-stage actions of a request
func (s *requestServiceImpl) GetComments(ctx context.Context, requestID string) ([]*entity.Action, error) {
	if _, err := s.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.actionRepo.GetByRequestAndStage(ctx, requestID, "Comment")
}

// ListVehicles returns fleet vehicles for request submission
func (s *requestServiceImpl) ListVehicles(ctx context.Context, limit, offset int) ([]*entity.Vehicle, error) {
	return s.vehicleRepo.List(ctx, normalizeLimit(limit), offset)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
