package service

import (
	"context"
	"errors"
	"sync"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	results []entity.AnalysisResult
	errs    []error
	calls   []entity.ExpenseInput
	receipt []*entity.Receipt
	block   chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, in entity.ExpenseInput, policies []entity.CompanyPolicy, receipt *entity.Receipt) (entity.AnalysisResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.calls)
	f.calls = append(f.calls, in)
	f.receipt = append(f.receipt, receipt)

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return entity.AnalysisResult{}, err
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return entity.AnalysisResult{RiskScore: entity.RiskLow, Summary: "ok"}, nil
}

type fakeReceipts struct {
	err error
}

func (f *fakeReceipts) Load(name string, data []byte) (*entity.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Receipt{Name: name, MimeType: "image/png", Data: data}, nil
}

type fakePolicies struct{}

func (fakePolicies) Policies() []entity.CompanyPolicy {
	return []entity.CompanyPolicy{{ID: "MEAL_LIMIT", Description: "Meals up to $75 per person."}}
}

type memReports struct {
	mu      sync.Mutex
	entries []entity.ExpenseEntry
	addErr  error
}

func (m *memReports) Entries() []entity.ExpenseEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.ExpenseEntry(nil), m.entries...)
}

func (m *memReports) Get(id string) (entity.ExpenseEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, true
		}
	}
	return entity.ExpenseEntry{}, false
}

func (m *memReports) Add(ctx context.Context, entry entity.ExpenseEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.entries = append([]entity.ExpenseEntry{entry}, m.entries...)
	return nil
}

func (m *memReports) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

type fakeAssistant struct {
	replies []string
	errs    []error
	sent    []string
	closed  int
}

func (f *fakeAssistant) Greeting() string { return "Hi there!" }

func (f *fakeAssistant) Send(ctx context.Context, text string) (string, error) {
	i := len(f.sent)
	f.sent = append(f.sent, text)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

func (f *fakeAssistant) Close() { f.closed++ }

type fakeExporter struct {
	path    string
	err     error
	entries []entity.ExpenseEntry
}

func (f *fakeExporter) Export(ctx context.Context, entries []entity.ExpenseEntry) (string, error) {
	f.entries = entries
	return f.path, f.err
}

func (f *fakeExporter) FileName() string { return "report" }
