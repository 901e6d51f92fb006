package port

import (
	"context"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// ExpenseAnalyzer defines the risk analysis of a single expense
type ExpenseAnalyzer interface {
	Analyze(ctx context.Context, in entity.ExpenseInput, policies []entity.CompanyPolicy, receipt *entity.Receipt) (entity.AnalysisResult, error)
}

// ChatAssistant defines the multi-turn policy assistant
type ChatAssistant interface {
	Greeting() string
	Send(ctx context.Context, text string) (string, error)
	Close()
}

// ReceiptLoader turns an uploaded file into a receipt image
type ReceiptLoader interface {
	Load(name string, data []byte) (*entity.Receipt, error)
}

// PolicySource supplies the company policies sent with every request
type PolicySource interface {
	Policies() []entity.CompanyPolicy
}
