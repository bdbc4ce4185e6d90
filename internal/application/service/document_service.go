package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/openfleet/fleetflow/internal/application/dispatcher"
	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/event"
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// ErrAdvisorNotConfigured is returned when a quote assessment is requested
// but no advisor backend is configured.
var ErrAdvisorNotConfigured = errors.New("quote advisor is not configured")

// ErrDocumentNotFound is returned when the referenced document does not exist
var ErrDocumentNotFound = errors.New("document not found")

// DocumentContent pairs a document record with its stored bytes
type DocumentContent struct {
	Document *entity.Document
	Content  []byte
}

// DocumentService manages opaque file attachments on maintenance requests
// and the advisory quote assessment built on top of them.
type DocumentService interface {
	Attach(ctx context.Context, requestID, fileName, mimeType, uploadedBy string, content []byte) (*entity.Document, error)
	ListByRequest(ctx context.Context, requestID string) ([]*entity.Document, error)
	Download(ctx context.Context, documentID string) (*DocumentContent, error)

	// AssessQuote runs the advisory cost-reasonableness check against the
	// request's quote and any attached document text. Never gates the workflow.
	AssessQuote(ctx context.Context, requestID string) (*port.QuoteAssessment, error)
}

type documentServiceImpl struct {
	requestRepo  port.RequestRepository
	documentRepo port.DocumentRepository
	quoteRepo    port.QuoteRepository
	storage      port.FileStorage
	extractor    port.DocumentTextExtractor
	advisor      port.QuoteAdvisor
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewDocumentService creates a new DocumentService. extractor and advisor may
// be nil when the advisory pipeline is disabled.
func NewDocumentService(
	requestRepo port.RequestRepository,
	documentRepo port.DocumentRepository,
	quoteRepo port.QuoteRepository,
	storage port.FileStorage,
	extractor port.DocumentTextExtractor,
	advisor port.QuoteAdvisor,
	disp dispatcher.Dispatcher,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		requestRepo:  requestRepo,
		documentRepo: documentRepo,
		quoteRepo:    quoteRepo,
		storage:      storage,
		extractor:    extractor,
		advisor:      advisor,
		dispatcher:   disp,
		logger:       logger,
	}
}

// Attach stores a document under the request's folder and records it
func (s *documentServiceImpl) Attach(ctx context.Context, requestID, fileName, mimeType, uploadedBy string, content []byte) (*entity.Document, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrRequestNotFound, requestID)
	}

	if len(content) == 0 {
		return nil, fmt.Errorf("document content is empty")
	}

	docID := uuid.NewString()
	relPath := filepath.Join("requests", requestID, docID+"_"+sanitizeFileName(fileName))

	if err := s.storage.Save(ctx, relPath, content); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &entity.Document{
		ID:         docID,
		RequestID:  requestID,
		FileName:   fileName,
		FilePath:   relPath,
		FileSize:   int64(len(content)),
		MimeType:   mimeType,
		UploadedBy: uploadedBy,
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// Best effort cleanup of the orphaned file
		if delErr := s.storage.Delete(ctx, relPath); delErr != nil {
			s.logger.Error("Failed to clean up orphaned document file", "path", relPath, "error", delErr)
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.logger.Info("Document attached",
		"request_id", requestID,
		"document_id", docID,
		"file_name", fileName,
		"size", len(content),
	)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeDocumentAttached, requestID, map[string]interface{}{
			"document_id": docID,
			"file_name":   fileName,
		}))
	}

	return doc, nil
}

// ListByRequest returns the documents attached to a request
func (s *documentServiceImpl) ListByRequest(ctx context.Context, requestID string) ([]*entity.Document, error) {
	return s.documentRepo.GetByRequestID(ctx, requestID)
}

// Download reads back a stored document
func (s *documentServiceImpl) Download(ctx context.Context, documentID string) (*DocumentContent, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}

	content, err := s.storage.Read(ctx, doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	return &DocumentContent{Document: doc, Content: content}, nil
}

// AssessQuote runs the advisory check against the request's quote
func (s *documentServiceImpl) AssessQuote(ctx context.Context, requestID string) (*port.QuoteAssessment, error) {
	if s.advisor == nil {
		return nil, ErrAdvisorNotConfigured
	}

	quote, err := s.quoteRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("no cost commitment recorded for request %s", requestID)
	}

	docText := s.collectDocumentText(ctx, requestID)

	assessment, err := s.advisor.AssessQuote(ctx, quote, docText)
	if err != nil {
		return nil, fmt.Errorf("quote assessment failed: %w", err)
	}

	return assessment, nil
}

// collectDocumentText extracts text from the request's PDF attachments.
// Extraction failures degrade to an empty context, never an error.
func (s *documentServiceImpl) collectDocumentText(ctx context.Context, requestID string) string {
	if s.extractor == nil {
		return ""
	}

	docs, err := s.documentRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to list documents for assessment", "request_id", requestID, "error", err)
		return ""
	}

	var parts []string
	for _, doc := range docs {
		if !strings.EqualFold(doc.MimeType, "application/pdf") {
			continue
		}
		content, err := s.storage.Read(ctx, doc.FilePath)
		if err != nil {
			s.logger.Error("Failed to read document for assessment", "document_id", doc.ID, "error", err)
			continue
		}
		text, err := s.extractor.ExtractText(ctx, content, doc.MimeType)
		if err != nil {
			s.logger.Error("Failed to extract document text", "document_id", doc.ID, "error", err)
			continue
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n\n")
}

// sanitizeFileName strips path separators and control characters
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		if r < 32 || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, name)
}
