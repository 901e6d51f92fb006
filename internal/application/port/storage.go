package port

import (
	"context"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// ReportExporter writes the history to a document and returns its path.
// An empty history writes nothing and returns an empty path.
type ReportExporter interface {
	Export(ctx context.Context, entries []entity.ExpenseEntry) (string, error)
	FileName() string
}
