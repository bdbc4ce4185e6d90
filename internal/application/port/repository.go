package port

import (
	"context"

	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/workflow"
)

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error

	GetByID(ctx context.Context, id string) (*entity.Request, error)

	// AdvanceStage moves the request to the given stage/status if and only if
	// the stored version still equals expectedVersion. A stale version returns
	// workflow.ErrConcurrentModification. Approval and completion timestamps
	// are stamped when the status transitions to Approved or Completed.
	AdvanceStage(ctx context.Context, id string, stage string, status entity.RequestStatus, expectedVersion int64) error

	// MarkRejected terminates the request, guarded by the same version check
	MarkRejected(ctx context.Context, id string, reason, rejectedBy string, expectedVersion int64) error

	List(ctx context.Context, limit, offset int) ([]*entity.Request, error)
	ListByKind(ctx context.Context, kind entity.RequestKind, limit, offset int) ([]*entity.Request, error)
	ListByRequestor(ctx context.Context, userID string, limit, offset int) ([]*entity.Request, error)
	ListActive(ctx context.Context) ([]*entity.Request, error)
}

// ActionRepository defines persistence operations for stage Actions.
// Actions are append-only; there is no update or delete.
type ActionRepository interface {
	Create(ctx context.Context, action *entity.Action) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.Action, error)
	GetByRequestAndStage(ctx context.Context, requestID, stage string) ([]*entity.Action, error)
}

// RouteRepository resolves workflow routes from configuration tables
type RouteRepository interface {
	// GetByDepartmentAndKind returns the route for a department/kind pair, or
	// workflow.ErrRouteNotFound when none is configured.
	GetByDepartmentAndKind(ctx context.Context, department string, kind entity.RequestKind) (*workflow.Route, error)
}

// QuoteRepository defines persistence operations for maintenance Quotes
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByRequestID(ctx context.Context, requestID string) (*entity.Quote, error)
}

// DocumentRepository defines persistence operations for request Documents
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.Document, error)
}

// NotificationRepository defines persistence operations for StageNotification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.StageNotification) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.StageNotification, error)
	MarkSent(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status, errorMsg string) error
}

// VehicleRepository provides read access to fleet vehicles. The workflow
// only validates references; fleet administration is out of scope.
type VehicleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Vehicle, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Vehicle, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
