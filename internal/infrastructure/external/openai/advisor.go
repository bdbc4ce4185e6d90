package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
)

// Advisor implements port.QuoteAdvisor using OpenAI chat completions. Its
// verdict is advisory only; the workflow never gates a transition on it.
type Advisor struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewAdvisor creates a new OpenAI quote advisor
func NewAdvisor(apiKey, model string, temperature float32, logger *zap.Logger) *Advisor {
	return &Advisor{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// assessmentResponse is the JSON shape we ask the model for
type assessmentResponse struct {
	Reasonable          bool    `json:"reasonable"`
	DeviationPercentage float64 `json:"deviation_percentage"`
	Confidence          float64 `json:"confidence"`
	Reasoning           string  `json:"reasoning"`
}

// AssessQuote benchmarks a maintenance quote against typical market rates
func (a *Advisor) AssessQuote(ctx context.Context, quote *entity.Quote, documentText string) (*port.QuoteAssessment, error) {
	a.logger.Debug("Assessing quote",
		zap.String("request_id", quote.RequestID),
		zap.Float64("total_cost", quote.TotalCost))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a fleet maintenance cost analyst. Judge whether vehicle repair quotes are priced reasonably against typical market rates. Always respond with valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: a.buildPrompt(quote, documentText),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var result assessmentResponse
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		a.logger.Error("Failed to parse OpenAI response",
			zap.Error(err), zap.String("content", content))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	a.logger.Info("Quote assessment completed",
		zap.String("request_id", quote.RequestID),
		zap.Bool("reasonable", result.Reasonable),
		zap.Float64("deviation", result.DeviationPercentage),
		zap.Float64("confidence", result.Confidence))

	return &port.QuoteAssessment{
		Reasonable:          result.Reasonable,
		DeviationPercentage: result.DeviationPercentage,
		Confidence:          result.Confidence,
		Reasoning:           result.Reasoning,
	}, nil
}

// buildPrompt builds the assessment prompt
func (a *Advisor) buildPrompt(quote *entity.Quote, documentText string) string {
	docSection := "No supporting documents provided."
	if documentText != "" {
		docSection = fmt.Sprintf("Supporting document text:\n%s", documentText)
	}

	return fmt.Sprintf(`Evaluate this vehicle maintenance quote against typical market rates:

**Quote:**
- Labor cost: %.2f
- Parts cost: %.2f
- Total cost: %.2f
- Estimated time: %s
- Notes: %s

%s

Respond with ONLY a JSON object of this exact structure:
{
  "reasonable": boolean,
  "deviation_percentage": number,
  "confidence": number between 0.0 and 1.0,
  "reasoning": string
}

deviation_percentage is the percentage by which the total cost deviates from a typical price for this kind of work (positive when overpriced).`,
		quote.LaborCost,
		quote.PartsCost,
		quote.TotalCost,
		quote.EstimatedTime,
		quote.Notes,
		docSection,
	)
}

// Verify interface compliance
var _ port.QuoteAdvisor = (*Advisor)(nil)
