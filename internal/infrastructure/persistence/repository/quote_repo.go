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

// QuoteRepository implements port.QuoteRepository
type QuoteRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sqlite.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new cost quote
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	query := `
		INSERT INTO quotes (
			request_id, labor_cost, parts_cost, total_cost,
			estimated_time, notes, submitted_by, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		quote.RequestID,
		quote.LaborCost,
		quote.PartsCost,
		quote.TotalCost,
		quote.EstimatedTime,
		quote.Notes,
		quote.SubmittedBy,
		quote.SubmittedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quote", zap.String("request_id", quote.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create quote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	quote.ID = id
	return nil
}

// GetByRequestID retrieves the latest quote for a request, or nil when none
// has been submitted
func (r *QuoteRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.Quote, error) {
	query := `
		SELECT id, request_id, labor_cost, parts_cost, total_cost,
			estimated_time, notes, submitted_by, submitted_at
		FROM quotes
		WHERE request_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	var quote entity.Quote
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, requestID).Scan(
		&quote.ID,
		&quote.RequestID,
		&quote.LaborCost,
		&quote.PartsCost,
		&quote.TotalCost,
		&quote.EstimatedTime,
		&quote.Notes,
		&quote.SubmittedBy,
		&quote.SubmittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quote", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	return &quote, nil
}

// Verify interface compliance
var _ port.QuoteRepository = (*QuoteRepository)(nil)
