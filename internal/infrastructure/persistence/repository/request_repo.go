package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/workflow"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
)

const requestColumns = `id, kind, status, priority, current_stage, department,
		description, requested_by_user_id, requested_by_name, vehicle_id,
		request_date, approved_date, completion_date,
		rejection_reason, rejected_by, rejected_at,
		version, created_at, updated_at`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			id, kind, status, priority, current_stage, department,
			description, requested_by_user_id, requested_by_name, vehicle_id,
			request_date, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.ID,
		string(req.Kind),
		int(req.Status),
		string(req.Priority),
		req.CurrentStage,
		req.Department,
		req.Description,
		req.RequestedByUserID,
		req.RequestedByName,
		req.VehicleID,
		req.RequestDate,
		req.Version,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID, or nil when it does not exist
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = ?`, requestColumns)

	req, err := scanRequest(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// AdvanceStage moves a request forward under an optimistic version check.
// The version must still match what the caller read; otherwise another
// transition won the race and workflow.ErrConcurrentModification is returned.
func (r *RequestRepository) AdvanceStage(ctx context.Context, id string, stage string, status entity.RequestStatus, expectedVersion int64) error {
	now := time.Now()

	query := `
		UPDATE requests
		SET current_stage = ?,
			status = ?,
			approved_date = CASE WHEN ? THEN ? ELSE approved_date END,
			completion_date = CASE WHEN ? THEN ? ELSE completion_date END,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		stage,
		int(status),
		status == entity.StatusApproved, now,
		status == entity.StatusCompleted, now,
		id, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to advance request stage",
			zap.String("id", id), zap.String("stage", stage), zap.Error(err))
		return fmt.Errorf("failed to advance request stage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %s version %d", workflow.ErrConcurrentModification, id, expectedVersion)
	}

	return nil
}

// MarkRejected terminates a request, guarded by the same version check
func (r *RequestRepository) MarkRejected(ctx context.Context, id string, reason, rejectedBy string, expectedVersion int64) error {
	query := `
		UPDATE requests
		SET status = ?,
			rejection_reason = ?,
			rejected_by = ?,
			rejected_at = ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		int(entity.StatusRejected),
		reason,
		rejectedBy,
		time.Now(),
		id, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to mark request rejected", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark request rejected: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %s version %d", workflow.ErrConcurrentModification, id, expectedVersion)
	}

	return nil
}

// List retrieves requests with pagination, newest first
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM requests
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, requestColumns)

	return r.queryRequests(ctx, query, limit, offset)
}

// ListByKind retrieves requests of a single kind with pagination
func (r *RequestRepository) ListByKind(ctx context.Context, kind entity.RequestKind, limit, offset int) ([]*entity.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM requests
		WHERE kind = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, requestColumns)

	return r.queryRequests(ctx, query, string(kind), limit, offset)
}

// ListByRequestor retrieves requests submitted by one user
func (r *RequestRepository) ListByRequestor(ctx context.Context, userID string, limit, offset int) ([]*entity.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM requests
		WHERE requested_by_user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, requestColumns)

	return r.queryRequests(ctx, query, userID, limit, offset)
}

// ListActive retrieves all non-terminal requests. Approved requests are still
// active: they sit at the final stage awaiting the completing action.
func (r *RequestRepository) ListActive(ctx context.Context) ([]*entity.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM requests
		WHERE status NOT IN (?, ?)
		ORDER BY created_at DESC
	`, requestColumns)

	return r.queryRequests(ctx, query, int(entity.StatusRejected), int(entity.StatusCompleted))
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*entity.Request, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var req entity.Request
	var kind, priority string
	var status int
	var vehicleID sql.NullString
	var approvedDate, completionDate, rejectedAt sql.NullTime
	var rejectionReason, rejectedBy sql.NullString

	err := row.Scan(
		&req.ID,
		&kind,
		&status,
		&priority,
		&req.CurrentStage,
		&req.Department,
		&req.Description,
		&req.RequestedByUserID,
		&req.RequestedByName,
		&vehicleID,
		&req.RequestDate,
		&approvedDate,
		&completionDate,
		&rejectionReason,
		&rejectedBy,
		&rejectedAt,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Kind = entity.RequestKind(kind)
	req.Status = entity.RequestStatus(status)
	req.Priority = entity.Priority(priority)
	if vehicleID.Valid {
		req.VehicleID = &vehicleID.String
	}
	if approvedDate.Valid {
		req.ApprovedDate = &approvedDate.Time
	}
	if completionDate.Valid {
		req.CompletionDate = &completionDate.Time
	}
	if rejectionReason.Valid {
		req.RejectionReason = rejectionReason.String
	}
	if rejectedBy.Valid {
		req.RejectedBy = rejectedBy.String
	}
	if rejectedAt.Valid {
		req.RejectedAt = &rejectedAt.Time
	}

	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
