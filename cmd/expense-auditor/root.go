package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/config"
	"github.com/garyjia/ai-expense-auditor/internal/container"
	"github.com/garyjia/ai-expense-auditor/pkg/utils"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "expense-auditor",
	Short: "AI expense fraud and policy risk review",
	Long: "Submits expense claims for AI risk analysis against company policy, keeps the " +
		"history locally, exports PDF and Excel reports and answers policy questions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		l, err := utils.NewLogger(utils.LoggerConfig{
			Level:      cfg.Logger.Level,
			OutputPath: cfg.Logger.OutputPath,
			Format:     cfg.Logger.Format,
			Name:       "expense-auditor",
		})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML config file")
}

// startContainer builds and starts the application. Commands that call the
// model pass needKey so a missing credential fails before any work.
func startContainer(ctx context.Context, needKey bool) (*container.Container, error) {
	if needKey {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
