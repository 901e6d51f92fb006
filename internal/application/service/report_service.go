package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/application/port"
	"github.com/garyjia/ai-expense-auditor/internal/export"
)

// ReportFormat selects a document exporter
type ReportFormat string

// Report formats
const (
	FormatPDF  ReportFormat = "pdf"
	FormatXLSX ReportFormat = "xlsx"
)

// ReportService builds the summary and documents from the history
type ReportService interface {
	Summary() export.Summary
	// Export writes the history in the given format and returns the saved
	// path. An empty history returns an empty path and no error.
	Export(ctx context.Context, format ReportFormat) (string, error)
	Exporting() bool
}

type reportServiceImpl struct {
	reports   port.ReportRepository
	exporters map[ReportFormat]port.ReportExporter
	logger    *zap.Logger

	busy busyFlag
}

// NewReportService creates a new ReportService
func NewReportService(reports port.ReportRepository, exporters map[ReportFormat]port.ReportExporter, logger *zap.Logger) ReportService {
	return &reportServiceImpl{
		reports:   reports,
		exporters: exporters,
		logger:    logger,
	}
}

func (s *reportServiceImpl) Summary() export.Summary {
	return export.Summarize(s.reports.Entries())
}

func (s *reportServiceImpl) Export(ctx context.Context, format ReportFormat) (string, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return "", fmt.Errorf("unsupported report format %q", format)
	}

	entries := s.reports.Entries()
	if len(entries) == 0 {
		s.logger.Info("No expenses to export", zap.String("format", string(format)))
		return "", nil
	}

	s.busy.enter()
	defer s.busy.leave()

	path, err := exporter.Export(ctx, entries)
	if err != nil {
		s.logger.Error("Report export failed", zap.String("format", string(format)), zap.Error(err))
		return "", fmt.Errorf("export %s report: %w", format, err)
	}

	s.logger.Info("Report exported",
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("entries", len(entries)))
	return path, nil
}

func (s *reportServiceImpl) Exporting() bool {
	return s.busy.active()
}
