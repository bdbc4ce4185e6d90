package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
)

// ActionRepository implements port.ActionRepository. Actions are append-only;
// the workflow status projection replays them on every read.
type ActionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewActionRepository creates a new action repository
func NewActionRepository(db *sqlite.DB, logger *zap.Logger) port.ActionRepository {
	return &ActionRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a new stage action
func (r *ActionRepository) Create(ctx context.Context, action *entity.Action) error {
	query := `
		INSERT INTO actions (
			request_id, stage, user_id, user_name, comments,
			rejection_reason, auto_skipped, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		action.RequestID,
		action.Stage,
		action.UserID,
		action.UserName,
		action.Comments,
		action.RejectionReason,
		action.AutoSkipped,
		action.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create action",
			zap.String("request_id", action.RequestID), zap.String("stage", action.Stage), zap.Error(err))
		return fmt.Errorf("failed to create action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	action.ID = id
	return nil
}

// GetByRequestID retrieves all actions for a request in recording order
func (r *ActionRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.Action, error) {
	query := `
		SELECT id, request_id, stage, user_id, user_name, comments,
			rejection_reason, auto_skipped, timestamp
		FROM actions
		WHERE request_id = ?
		ORDER BY id ASC
	`

	return r.queryActions(ctx, query, requestID)
}

// GetByRequestAndStage retrieves actions recorded at one stage of a request.
// Stage names are matched case-insensitively.
func (r *ActionRepository) GetByRequestAndStage(ctx context.Context, requestID, stage string) ([]*entity.Action, error) {
	query := `
		SELECT id, request_id, stage, user_id, user_name, comments,
			rejection_reason, auto_skipped, timestamp
		FROM actions
		WHERE request_id = ? AND LOWER(stage) = LOWER(?)
		ORDER BY id ASC
	`

	return r.queryActions(ctx, query, requestID, stage)
}

func (r *ActionRepository) queryActions(ctx context.Context, query string, args ...interface{}) ([]*entity.Action, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list actions", zap.Error(err))
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*entity.Action
	for rows.Next() {
		var action entity.Action
		err := rows.Scan(
			&action.ID,
			&action.RequestID,
			&action.Stage,
			&action.UserID,
			&action.UserName,
			&action.Comments,
			&action.RejectionReason,
			&action.AutoSkipped,
			&action.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, &action)
	}

	return actions, rows.Err()
}

// Verify interface compliance
var _ port.ActionRepository = (*ActionRepository)(nil)
