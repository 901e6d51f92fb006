package ai

import (
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/policy"
)

const (
	receiptProvidedNote = "Receipt image provided and should be analyzed by AI."
	receiptMissingNote  = "No receipt image provided."
)

// AnalysisRequest is the user turn of an analysis call: an optional receipt
// image, its caption and the rendered prompt text.
type AnalysisRequest struct {
	Text    string
	Caption string
	Image   *entity.Receipt
}

type analysisPromptData struct {
	Expense     entity.ExpenseInput
	Amount      string
	ReceiptNote string
	Policies    string
	Schema      string
}

// BuildAnalysisRequest renders the analysis prompt for one expense
func (p *PromptSet) BuildAnalysisRequest(in entity.ExpenseInput, policies []entity.CompanyPolicy, receipt *entity.Receipt) (AnalysisRequest, error) {
	note := receiptMissingNote
	if receipt != nil {
		note = receiptProvidedNote
	}

	text, err := p.renderAnalysis(analysisPromptData{
		Expense:     in,
		Amount:      strconv.FormatFloat(in.Amount, 'f', -1, 64),
		ReceiptNote: note,
		Policies:    policy.Render(policies),
		Schema:      p.ResponseSchema,
	})
	if err != nil {
		return AnalysisRequest{}, err
	}

	req := AnalysisRequest{Text: text}
	if receipt != nil {
		req.Image = receipt
		req.Caption = p.ReceiptCaption
	}
	return req, nil
}

// UserMessage converts the request into a chat message. With a receipt the
// parts are ordered image, caption, prompt.
func (r AnalysisRequest) UserMessage() openai.ChatCompletionMessage {
	if r.Image == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: r.Text,
		}
	}

	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    r.Image.DataURI(),
					Detail: openai.ImageURLDetailHigh,
				},
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: r.Caption,
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: r.Text,
			},
		},
	}
}
