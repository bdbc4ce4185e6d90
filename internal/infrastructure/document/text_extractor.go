package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
)

// TextExtractor implements port.DocumentTextExtractor using mupdf. It pulls
// plain text out of uploaded PDFs so the quote advisor can read supporting
// documents; other mime types yield no text rather than an error.
type TextExtractor struct {
	maxPages int
	logger   *zap.Logger
}

// NewTextExtractor creates a new PDF text extractor. maxPages bounds how many
// pages are read per document; zero or negative means all pages.
func NewTextExtractor(maxPages int, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		maxPages: maxPages,
		logger:   logger,
	}
}

// ExtractText returns the concatenated page text of a PDF document
func (e *TextExtractor) ExtractText(ctx context.Context, content []byte, mimeType string) (string, error) {
	if !strings.EqualFold(mimeType, "application/pdf") {
		e.logger.Debug("Skipping text extraction for unsupported mime type",
			zap.String("mime_type", mimeType))
		return "", nil
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		e.logger.Error("Failed to open PDF", zap.Error(err))
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if e.maxPages > 0 && pageCount > e.maxPages {
		pageCount = e.maxPages
	}

	var sb strings.Builder
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum), zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// Verify interface compliance
var _ port.DocumentTextExtractor = (*TextExtractor)(nil)
