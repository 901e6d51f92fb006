// Package container wires the expense auditor's components together and
// owns their lifecycle.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/port"
	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/config"
	"github.com/garyjia/ai-expense-auditor/internal/export"
	"github.com/garyjia/ai-expense-auditor/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/ai-expense-auditor/internal/policy"
	"github.com/garyjia/ai-expense-auditor/internal/receipt"
	"github.com/garyjia/ai-expense-auditor/internal/storage"
	"github.com/garyjia/ai-expense-auditor/internal/store"
	"github.com/garyjia/ai-expense-auditor/pkg/database"
)

// AIBundle holds the model-facing components
type AIBundle struct {
	Catalog   *policy.Catalog
	Prompts   *ai.PromptSet
	Auditor   *ai.Auditor
	Assistant *ai.Assistant
}

// ExportBundle holds the report writers
type ExportBundle struct {
	Storage *storage.LocalFileStorage
	PDF     *export.PDFExporter
	XLSX    *export.XLSXExporter
}

// ProvideDatabase opens the local database and applies the embedded
// migrations.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// ProvideReportStore creates the report store over the database and loads
// the persisted history.
func ProvideReportStore(ctx context.Context, db *database.DB, logger *zap.Logger) (*store.ReportStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	reports := store.New(sqlite.NewKVStore(db, logger), logger)
	reports.Load(ctx)
	return reports, nil
}

// ProvideAI creates the analysis and assistant clients. A nil completer
// means the OpenAI API configured in cfg.
func ProvideAI(cfg *config.Config, completer ai.ChatCompleter, logger *zap.Logger) (*AIBundle, error) {
	catalog, err := policy.Load(cfg.Policies.Path)
	if err != nil {
		return nil, err
	}

	prompts, err := ai.LoadPrompts(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}

	if completer == nil {
		completer = ai.NewClient(cfg.OpenAI)
	}

	return &AIBundle{
		Catalog:   catalog,
		Prompts:   prompts,
		Auditor:   ai.NewAuditor(completer, prompts, ai.AnalysisOptions(cfg.OpenAI), logger.Named("auditor")),
		Assistant: ai.NewAssistant(completer, prompts, catalog.Policies(), ai.ChatOptions(cfg.OpenAI), logger.Named("assistant")),
	}, nil
}

// ProvideExporters creates the document exporters writing under the
// configured output directory.
func ProvideExporters(cfg *config.ExportConfig, logger *zap.Logger) *ExportBundle {
	files := storage.NewLocalFileStorage(cfg.OutputDir, logger)
	return &ExportBundle{
		Storage: files,
		PDF: export.NewPDFExporter(export.PDFOptions{
			CompanyName: cfg.CompanyName,
			Logo:        cfg.Logo,
			LogoTimeout: cfg.LogoTimeout,
		}, files, logger.Named("pdf")),
		XLSX: export.NewXLSXExporter(files, logger.Named("xlsx")),
	}
}

// ServiceDeps holds the dependencies of the application services
type ServiceDeps struct {
	Reports   *store.ReportStore
	AI        *AIBundle
	Receipts  *receipt.Loader
	Exporters *ExportBundle
	Logger    *zap.Logger
}

// ProvideServices creates the application services
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Reports == nil || deps.AI == nil || deps.Exporters == nil {
		return nil, fmt.Errorf("service dependencies are incomplete")
	}

	return &ServiceBundle{
		Expenses: service.NewExpenseService(deps.AI.Auditor, deps.Receipts, deps.AI.Catalog, deps.Reports, deps.Logger),
		Reports: service.NewReportService(deps.Reports, map[service.ReportFormat]port.ReportExporter{
			service.FormatPDF:  deps.Exporters.PDF,
			service.FormatXLSX: deps.Exporters.XLSX,
		}, deps.Logger),
		Chat: service.NewChatService(deps.AI.Assistant, deps.Logger),
	}, nil
}
