package port

import (
	"context"

	"github.com/openfleet/fleetflow/internal/domain/entity"
)

// MessageSender delivers a pending-action notice to a user through an
// external chat channel. Implementations must be safe for concurrent use.
type MessageSender interface {
	SendMessage(ctx context.Context, userID string, content string) error
}

// QuoteAssessment is the advisory verdict on a submitted cost commitment
type QuoteAssessment struct {
	Reasonable          bool
	DeviationPercentage float64
	Confidence          float64
	Reasoning           string
}

// QuoteAdvisor estimates whether a maintenance quote is priced reasonably.
// Advisory only: the workflow never gates a transition on its verdict.
type QuoteAdvisor interface {
	AssessQuote(ctx context.Context, quote *entity.Quote, documentText string) (*QuoteAssessment, error)
}

// DocumentTextExtractor pulls plain text out of an uploaded document
type DocumentTextExtractor interface {
	ExtractText(ctx context.Context, content []byte, mimeType string) (string, error)
}
