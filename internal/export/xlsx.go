package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/storage"
)

const (
	expensesSheet = "Expenses"
	summarySheet  = "Summary"
)

var xlsxHeader = []string{
	"ID", "Employee", "Date", "Vendor", "Description", "Category", "Amount", "Currency",
	"Risk", "Flagged", "AI Summary", "Policy Violations", "Anomalies", "Recommended Action", "Receipt",
}

// XLSXExporter writes the expense history as an Excel workbook with an
// "Expenses" sheet and a "Summary" sheet.
type XLSXExporter struct {
	storage storage.FileStorage
	now     func() time.Time
	logger  *zap.Logger
}

// NewXLSXExporter creates an Excel exporter saving through fileStorage
func NewXLSXExporter(fileStorage storage.FileStorage, logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{
		storage: fileStorage,
		now:     time.Now,
		logger:  logger,
	}
}

// FileName is the workbook name for today's date
func (x *XLSXExporter) FileName() string {
	return fmt.Sprintf("Expense_Report_%s.xlsx", x.now().Format(entity.DateLayout))
}

// Export writes the workbook and returns its path; no entries is a no-op
func (x *XLSXExporter) Export(ctx context.Context, entries []entity.ExpenseEntry) (string, error) {
	if len(entries) == 0 {
		x.logger.Info("No expenses to export")
		return "", nil
	}

	var buf bytes.Buffer
	if err := x.Render(ctx, entries, &buf); err != nil {
		return "", err
	}

	path, err := x.storage.SaveReport(x.FileName(), buf.Bytes(), storage.FileTypeExcel)
	if err != nil {
		return "", eris.Wrap(err, "failed to save xlsx report")
	}
	return path, nil
}

// Render writes the workbook for entries to w
func (x *XLSXExporter) Render(_ context.Context, entries []entity.ExpenseEntry, w io.Writer) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expensesSheet); err != nil {
		return eris.Wrap(err, "failed to name expenses sheet")
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return eris.Wrap(err, "failed to create summary sheet")
	}

	if err := x.writeExpenses(f, entries); err != nil {
		return err
	}
	if err := x.writeSummary(f, Summarize(entries)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "failed to write xlsx report")
	}

	x.logger.Info("XLSX report rendered", zap.Int("entries", len(entries)))
	return nil
}

func (x *XLSXExporter) writeExpenses(f *excelize.File, entries []entity.ExpenseEntry) error {
	if err := f.SetSheetRow(expensesSheet, "A1", &xlsxHeader); err != nil {
		return eris.Wrap(err, "failed to write header")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"008080"}},
	})
	if err != nil {
		return eris.Wrap(err, "failed to create header style")
	}
	lastCol, _ := excelize.ColumnNumberToName(len(xlsxHeader))
	if err := f.SetCellStyle(expensesSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return eris.Wrap(err, "failed to style header")
	}

	for i, e := range entries {
		row := []interface{}{
			e.ID, e.EmployeeName, e.Date, e.Vendor, e.Description, string(e.Category), e.Amount, e.Currency,
		}
		if a := e.Analysis; a != nil {
			row = append(row,
				string(a.RiskScore),
				a.IsFlagged,
				a.Summary,
				joinViolations(a.PolicyViolations),
				joinAnomalies(a.AnomaliesDetected),
				a.RecommendedAction,
			)
		} else {
			row = append(row, "N/A", false, "N/A", "", "", "")
		}
		row = append(row, e.ReceiptImageName)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(expensesSheet, cell, &row); err != nil {
			return eris.Wrapf(err, "failed to write row for %s", e.ID)
		}
	}

	if err := f.SetColWidth(expensesSheet, "B", "E", 22); err != nil {
		return eris.Wrap(err, "failed to size columns")
	}
	if err := f.SetColWidth(expensesSheet, "K", "N", 40); err != nil {
		return eris.Wrap(err, "failed to size columns")
	}
	return nil
}

func (x *XLSXExporter) writeSummary(f *excelize.File, s Summary) error {
	for i, row := range s.Rows() {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := []interface{}{row.Label, row.Value}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return eris.Wrap(err, "failed to write summary")
		}
	}
	if s.MixedCurrencies {
		cell, _ := excelize.CoordinatesToCellName(1, len(s.Rows())+2)
		if err := f.SetCellValue(summarySheet, cell, s.MixedCurrencyNote()); err != nil {
			return eris.Wrap(err, "failed to write summary note")
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}

func joinViolations(vs []entity.PolicyViolation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Policy, v.Details))
	}
	return strings.Join(parts, "\n")
}

func joinAnomalies(as []entity.Anomaly) string {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Anomaly, a.Details))
	}
	return strings.Join(parts, "\n")
}
