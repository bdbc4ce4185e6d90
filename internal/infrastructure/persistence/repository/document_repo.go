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

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sqlite.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists document metadata; file content lives in storage
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			id, request_id, file_name, file_path, file_size, mime_type, uploaded_by
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		doc.ID,
		doc.RequestID,
		doc.FileName,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		doc.UploadedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create document",
			zap.String("id", doc.ID), zap.String("request_id", doc.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID, or nil when it does not exist
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	query := `
		SELECT id, request_id, file_name, file_path, file_size, mime_type,
			uploaded_by, created_at
		FROM documents
		WHERE id = ?
	`

	var doc entity.Document
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.RequestID,
		&doc.FileName,
		&doc.FilePath,
		&doc.FileSize,
		&doc.MimeType,
		&doc.UploadedBy,
		&doc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// GetByRequestID retrieves all documents attached to a request
func (r *DocumentRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.Document, error) {
	query := `
		SELECT id, request_id, file_name, file_path, file_size, mime_type,
			uploaded_by, created_at
		FROM documents
		WHERE request_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		var doc entity.Document
		err := rows.Scan(
			&doc.ID,
			&doc.RequestID,
			&doc.FileName,
			&doc.FilePath,
			&doc.FileSize,
			&doc.MimeType,
			&doc.UploadedBy,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
