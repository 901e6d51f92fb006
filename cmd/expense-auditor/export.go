package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/ai-expense-auditor/internal/application/service"
)

var exportOutputDir string

var exportCmd = &cobra.Command{
	Use:       "export pdf|xlsx",
	Short:     "Write the history to a PDF or Excel report",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(service.FormatPDF), string(service.FormatXLSX)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutputDir != "" {
			cfg.Export.OutputDir = exportOutputDir
		}

		app, err := startContainer(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		path, err := app.Services().Reports.Export(cmd.Context(), service.ReportFormat(args[0]))
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "No expenses to export.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutputDir, "output", "o", "", "override export.output_dir")
	rootCmd.AddCommand(exportCmd)
}
