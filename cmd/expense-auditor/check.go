package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/port"
	"github.com/garyjia/ai-expense-auditor/internal/config"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/policy"
)

var checkTimeout time.Duration

// sampleExpense is sent by check; it breaks the meal limit on purpose
var sampleExpense = entity.ExpenseInput{
	EmployeeName: "Connection Check",
	Date:         "2024-03-01",
	Amount:       120,
	Currency:     entity.DefaultCurrency,
	Vendor:       "City Bistro",
	Category:     entity.CategoryMeals,
	Description:  "Team lunch for two",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the model connection with a sample analysis",
	Long:  "Prints the effective model configuration and analyzes a sample expense without storing it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		printConfig(out, cfg)

		app, err := startContainer(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()

		return runCheck(ctx, app.AI().Auditor, app.AI().Catalog, out)
	},
}

func printConfig(w io.Writer, c *config.Config) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Model: %s\n", c.OpenAI.Model)
	if c.OpenAI.BaseURL != "" {
		fmt.Fprintf(w, "  Base URL: %s\n", c.OpenAI.BaseURL)
	}
	fmt.Fprintf(w, "  API key length: %d chars\n", len(c.OpenAI.APIKey))
	if len(c.OpenAI.APIKey) >= 4 {
		fmt.Fprintf(w, "  API key prefix: %s...\n", c.OpenAI.APIKey[:4])
	}
	fmt.Fprintf(w, "  Database: %s\n", c.Database.Path)
	fmt.Fprintln(w)
}

func runCheck(ctx context.Context, analyzer port.ExpenseAnalyzer, catalog *policy.Catalog, out io.Writer) error {
	fmt.Fprintf(out, "Analyzing sample expense against %d policies...\n", len(catalog.Policies()))

	start := time.Now()
	result, err := analyzer.Analyze(ctx, sampleExpense, catalog.Policies(), nil)
	if err != nil {
		if te, ok := ai.AsTransportError(err); ok && te.Retryable() {
			return fmt.Errorf("model reachable but over quota: %w", err)
		}
		return fmt.Errorf("model check failed: %w", err)
	}

	fmt.Fprintf(out, "Response received in %v\n\n", time.Since(start).Round(time.Millisecond))
	entry := entity.NewEntry("sample", sampleExpense, nil)
	entry.Analysis = &result
	printEntry(out, entry)
	if result.Summary == ai.FallbackSummary {
		return fmt.Errorf("model replied but the reply was not in the expected format")
	}
	return nil
}

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "model call timeout")
	rootCmd.AddCommand(checkCmd)
}
