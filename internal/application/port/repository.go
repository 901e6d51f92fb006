package port

import (
	"context"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// ReportRepository defines the persisted expense history, newest first
type ReportRepository interface {
	Entries() []entity.ExpenseEntry
	Get(id string) (entity.ExpenseEntry, bool)
	Add(ctx context.Context, entry entity.ExpenseEntry) error
	Clear(ctx context.Context)
}

// ThemeRepository defines the persisted UI theme preference
type ThemeRepository interface {
	Theme() entity.Theme
	SetTheme(ctx context.Context, theme entity.Theme) error
	ToggleTheme(ctx context.Context) entity.Theme
}
