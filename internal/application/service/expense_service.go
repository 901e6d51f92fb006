package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/port"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// Upload is a receipt file attached to a submission
type Upload struct {
	Name string
	Data []byte
}

// ExpenseService handles expense submissions and the history they build up
type ExpenseService interface {
	// Submit validates the input, runs the analysis and records the entry.
	// A transport failure still records the entry with the fallback analysis
	// and is returned alongside it.
	Submit(ctx context.Context, input entity.ExpenseInput, upload *Upload) (entity.ExpenseEntry, error)
	List() []entity.ExpenseEntry
	Get(id string) (entity.ExpenseEntry, bool)
	Clear(ctx context.Context)
	Analyzing() bool
}

type expenseServiceImpl struct {
	analyzer port.ExpenseAnalyzer
	receipts port.ReceiptLoader
	policies port.PolicySource
	reports  port.ReportRepository
	newID    func() string
	logger   *zap.Logger

	mu        sync.Mutex
	analyzing busyFlag
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	analyzer port.ExpenseAnalyzer,
	receipts port.ReceiptLoader,
	policies port.PolicySource,
	reports port.ReportRepository,
	logger *zap.Logger,
) ExpenseService {
	return &expenseServiceImpl{
		analyzer: analyzer,
		receipts: receipts,
		policies: policies,
		reports:  reports,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

func (s *expenseServiceImpl) Submit(ctx context.Context, input entity.ExpenseInput, upload *Upload) (entity.ExpenseEntry, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return entity.ExpenseEntry{}, err
	}

	var receipt *entity.Receipt
	if upload != nil && len(upload.Data) > 0 {
		r, err := s.receipts.Load(upload.Name, upload.Data)
		if err != nil {
			return entity.ExpenseEntry{}, err
		}
		receipt = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing.enter()
	defer s.analyzing.leave()

	entry := entity.NewEntry(s.newID(), input, receipt)
	s.logger.Info("Analyzing expense",
		zap.String("id", entry.ID),
		zap.String("category", string(entry.Category)),
		zap.Bool("receipt", receipt != nil))

	result, analyzeErr := s.analyzer.Analyze(ctx, input, s.policies.Policies(), receipt)
	if analyzeErr != nil {
		s.logger.Error("Expense analysis failed",
			zap.String("id", entry.ID),
			zap.Error(analyzeErr))
		result = ai.FallbackResult()
	}
	entry.Analysis = &result

	if err := s.reports.Add(ctx, entry); err != nil {
		return entry, eris.Wrap(err, "failed to record expense")
	}

	s.logger.Info("Expense recorded",
		zap.String("id", entry.ID),
		zap.String("risk", string(result.RiskScore)),
		zap.Bool("flagged", result.IsFlagged))
	return entry, analyzeErr
}

func (s *expenseServiceImpl) List() []entity.ExpenseEntry {
	return s.reports.Entries()
}

func (s *expenseServiceImpl) Get(id string) (entity.ExpenseEntry, bool) {
	return s.reports.Get(id)
}

func (s *expenseServiceImpl) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports.Clear(ctx)
	s.logger.Info("Expense history cleared")
}

func (s *expenseServiceImpl) Analyzing() bool {
	return s.analyzing.active()
}
