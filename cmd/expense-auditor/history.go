package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List submitted expenses, newest first, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startContainer(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			entry, ok := app.Services().Expenses.Get(args[0])
			if !ok {
				return fmt.Errorf("expense %s not found", args[0])
			}
			if historyJSON {
				return printJSON(out, entry)
			}
			printEntry(out, entry)
			return nil
		}

		entries := app.Services().Expenses.List()
		if historyJSON {
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No expenses submitted yet.")
			return nil
		}
		return printHistory(out, entries)
	},
}

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals and risk counts for the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startContainer(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		summary := app.Services().Reports.Summary()
		if summaryJSON {
			return printJSON(cmd.OutOrStdout(), summary)
		}
		printSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole expense history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear history without --yes")
		}

		app, err := startContainer(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		app.Services().Expenses.Clear(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Expense history cleared.")
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "confirm deletion")
	rootCmd.AddCommand(historyCmd, summaryCmd, clearCmd)
}
