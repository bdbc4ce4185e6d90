package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a pending-action notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.StageNotification) error {
	query := `
		INSERT INTO stage_notifications (
			request_id, stage, user_id, user_name, message, status
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		n.RequestID,
		n.Stage,
		n.UserID,
		n.UserName,
		n.Message,
		n.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("request_id", n.RequestID), zap.String("user_id", n.UserID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetByRequestID retrieves all notifications recorded for a request
func (r *NotificationRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.StageNotification, error) {
	query := `
		SELECT id, request_id, stage, user_id, user_name, message, status,
			sent_at, error_message, created_at
		FROM stage_notifications
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.StageNotification
	for rows.Next() {
		var n entity.StageNotification
		var sentAt sql.NullTime
		var errorMessage sql.NullString

		err := rows.Scan(
			&n.ID,
			&n.RequestID,
			&n.Stage,
			&n.UserID,
			&n.UserName,
			&n.Message,
			&n.Status,
			&sentAt,
			&errorMessage,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		if errorMessage.Valid {
			n.ErrorMessage = errorMessage.String
		}

		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkSent records a successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE stage_notifications
		SET status = ?, sent_at = CURRENT_TIMESTAMP, error_message = NULL
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationStatusSent, id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}

	return nil
}

// UpdateStatus records a delivery outcome with an optional error message
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id int64, status, errorMsg string) error {
	query := `
		UPDATE stage_notifications
		SET status = ?, error_message = ?
		WHERE id = ?
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, status, errorMsg, id)
	if err != nil {
		r.logger.Error("Failed to update notification status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
