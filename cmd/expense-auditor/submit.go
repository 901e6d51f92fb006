package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

var submitInput entity.ExpenseInput

var (
	submitCategory string
	submitReceipt  string
	submitJSON     bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit an expense for AI risk analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in := submitInput
		in.Category = entity.Category(submitCategory)

		var upload *service.Upload
		if submitReceipt != "" {
			data, err := os.ReadFile(submitReceipt)
			if err != nil {
				return fmt.Errorf("read receipt: %w", err)
			}
			upload = &service.Upload{Name: filepath.Base(submitReceipt), Data: data}
		}

		app, err := startContainer(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close()

		entry, err := app.Services().Expenses.Submit(ctx, in, upload)
		if err != nil {
			if _, ok := ai.AsTransportError(err); !ok {
				return err
			}
			// recorded with the fallback analysis
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		}

		if submitJSON {
			return printJSON(cmd.OutOrStdout(), entry)
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitInput.EmployeeName, "employee", "", "employee name")
	f.StringVar(&submitInput.Date, "date", "", "expense date (YYYY-MM-DD)")
	f.Float64Var(&submitInput.Amount, "amount", 0, "amount spent")
	f.StringVar(&submitInput.Currency, "currency", entity.DefaultCurrency, "three-letter currency code")
	f.StringVar(&submitInput.Vendor, "vendor", "", "vendor or merchant")
	f.StringVar(&submitCategory, "category", string(entity.CategoryOther), "expense category")
	f.StringVar(&submitInput.Description, "description", "", "business purpose")
	f.StringVar(&submitReceipt, "receipt", "", "receipt image or PDF")
	f.BoolVar(&submitJSON, "json", false, "print the stored entry as JSON")
	rootCmd.AddCommand(submitCmd)
}
