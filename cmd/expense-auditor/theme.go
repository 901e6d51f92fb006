package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the saved UI theme",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(entity.ThemeLight), string(entity.ThemeDark), "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startContainer(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		reports := app.Reports()
		switch {
		case len(args) == 0:
		case args[0] == "toggle":
			reports.ToggleTheme(cmd.Context())
		default:
			if err := reports.SetTheme(cmd.Context(), entity.Theme(args[0])); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), reports.Theme())
		return nil
	},
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the company policies every analysis is checked against",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startContainer(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, p := range app.AI().Catalog.Policies() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", p.ID, p.String())
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the expense categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range entity.Categories {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd, policiesCmd, categoriesCmd)
}
