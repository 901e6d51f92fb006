package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/config"
	httpapi "github.com/garyjia/ai-expense-auditor/internal/interfaces/http"
	"github.com/garyjia/ai-expense-auditor/internal/receipt"
	"github.com/garyjia/ai-expense-auditor/internal/store"
	"github.com/garyjia/ai-expense-auditor/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in order and torn down in reverse.
type Container struct {
	config    *config.Config
	logger    *zap.Logger
	completer ai.ChatCompleter

	// Infrastructure - Data
	db      *database.DB
	reports *store.ReportStore

	// Infrastructure - External
	ai       *AIBundle
	receipts *receipt.Loader

	// Infrastructure - Storage
	exporters *ExportBundle

	// Application
	services *ServiceBundle

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Expenses service.ExpenseService
	Reports  service.ReportService
	Chat     service.ChatService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Option customises a Container
type Option func(*Container)

// WithCompleter replaces the OpenAI client, e.g. with a local fake
func WithCompleter(completer ai.ChatCompleter) Option {
	return func(c *Container) {
		c.completer = completer
	}
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components in dependency order:
// 1. Database and report store
// 2. Model clients, policies and prompts
// 3. Receipt intake and exporters
// 4. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	// Step 1: database and report store
	db, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db

	reports, err := ProvideReportStore(ctx, c.db, c.logger.Named("store"))
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize report store: %w", err))
	}
	c.reports = reports
	c.logger.Info("Report store loaded", zap.Int("entries", len(reports.Entries())))

	// Step 2: model clients
	bundle, err := ProvideAI(c.config, c.completer, c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize AI clients: %w", err))
	}
	c.ai = bundle
	c.logger.Info("AI clients initialized", zap.String("model", c.config.OpenAI.Model))

	// Step 3: receipts and exporters
	c.receipts = receipt.NewLoader(c.config.Receipt.MaxBytes, c.logger.Named("receipt"))
	c.exporters = ProvideExporters(&c.config.Export, c.logger)
	c.logger.Info("Storage initialized", zap.String("output_dir", c.exporters.Storage.BaseDir()))

	// Step 4: services
	services, err := ProvideServices(&ServiceDeps{
		Reports:   c.reports,
		AI:        c.ai,
		Receipts:  c.receipts,
		Exporters: c.exporters,
		Logger:    c.logger,
	})
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize services: %w", err))
	}
	c.services = services

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// abort releases what a failed Start already opened
func (c *Container) abort(err error) error {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	return err
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: drop the assistant session and chat transcript (reverse of step 4)
	if c.services != nil {
		c.services.Chat.Close()
	}

	// Steps 2-3: exporters, receipts and model clients hold no resources

	// Step 4: close database (reverse of step 1)
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.db != nil {
		if err := c.db.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.config.OpenAI.APIKey == "" && c.completer == nil {
		status.Components["openai"] = ComponentHealth{Healthy: false, Message: "no API key configured"}
		status.Overall = false
	} else {
		status.Components["openai"] = ComponentHealth{Healthy: true}
	}

	return status
}

// HTTPServer builds the local API server over the container's services
func (c *Container) HTTPServer() *httpapi.Server {
	return httpapi.NewServer(httpapi.ServerConfig{
		Host:         c.config.Server.Host,
		Port:         c.config.Server.Port,
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
	}, httpapi.Services{
		Expenses: c.services.Expenses,
		Reports:  c.services.Reports,
		Chat:     c.services.Chat,
		Themes:   c.reports,
		Policies: c.ai.Catalog,
	}, c.logger.Named("http"))
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Reports returns the report store.
func (c *Container) Reports() *store.ReportStore {
	return c.reports
}

// AI returns the model-facing components.
func (c *Container) AI() *AIBundle {
	return c.ai
}

// Receipts returns the receipt loader.
func (c *Container) Receipts() *receipt.Loader {
	return c.receipts
}

// Exporters returns the document exporters.
func (c *Container) Exporters() *ExportBundle {
	return c.exporters
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
