package ai

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// Auditor asks the model for a fraud and policy-risk assessment of one
// expense. It performs no retries.
type Auditor struct {
	client  ChatCompleter
	prompts *PromptSet
	opts    ModelOptions
	logger  *zap.Logger
}

// NewAuditor creates a new expense auditor
func NewAuditor(client ChatCompleter, prompts *PromptSet, opts ModelOptions, logger *zap.Logger) *Auditor {
	return &Auditor{
		client:  client,
		prompts: prompts,
		opts:    opts,
		logger:  logger,
	}
}

// Analyze sends the expense, policies and optional receipt to the model and
// normalizes the reply. A transport failure returns a *TransportError.
func (a *Auditor) Analyze(ctx context.Context, in entity.ExpenseInput, policies []entity.CompanyPolicy, receipt *entity.Receipt) (entity.AnalysisResult, error) {
	req, err := a.prompts.BuildAnalysisRequest(in, policies, receipt)
	if err != nil {
		return entity.AnalysisResult{}, err
	}

	a.logger.Info("Starting expense analysis",
		zap.String("employee", in.EmployeeName),
		zap.String("category", string(in.Category)),
		zap.Float64("amount", in.Amount),
		zap.Bool("receipt", receipt != nil))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: a.prompts.AnalysisSystem,
			},
			req.UserMessage(),
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		te := classifyAnalysisError(err)
		a.logger.Error("OpenAI API call failed",
			zap.Stringer("kind", te.Kind),
			zap.Error(err))
		return entity.AnalysisResult{}, te
	}

	content := firstContent(resp)
	if strings.TrimSpace(content) == "" {
		a.logger.Error("Empty analysis response")
		return entity.AnalysisResult{}, emptyResponseError("AI analysis")
	}

	result := Normalize(content)
	if result.Summary == FallbackSummary {
		a.logger.Warn("Analysis response was not in the expected format",
			zap.String("content", content))
	}

	a.logger.Info("Expense analysis completed",
		zap.String("risk", string(result.RiskScore)),
		zap.Bool("flagged", result.IsFlagged),
		zap.Int("violations", len(result.PolicyViolations)),
		zap.Int("anomalies", len(result.AnomaliesDetected)))

	return result, nil
}
