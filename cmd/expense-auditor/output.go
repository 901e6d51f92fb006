package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/export"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printEntry writes the analysis of one expense the way the result panel shows it
func printEntry(w io.Writer, e entity.ExpenseEntry) {
	fmt.Fprintf(w, "Expense %s\n", e.ID)
	fmt.Fprintf(w, "  %s - %s - %s (%s)\n", e.EmployeeName, e.Date, e.Vendor, export.FormatCurrency(e.Amount, e.Currency))
	if e.ReceiptImageName != "" {
		fmt.Fprintf(w, "  Receipt: %s\n", e.ReceiptImageName)
	}

	a := e.Analysis
	if a == nil {
		fmt.Fprintln(w, "  Analysis pending")
		return
	}

	flag := ""
	if a.IsFlagged {
		flag = " (Flagged)"
	}
	fmt.Fprintf(w, "  Risk: %s%s\n", a.RiskScore, flag)
	fmt.Fprintf(w, "  Summary: %s\n", a.Summary)

	if len(a.PolicyViolations) > 0 {
		fmt.Fprintln(w, "  Policy Violations:")
		for _, v := range a.PolicyViolations {
			fmt.Fprintf(w, "    - %s: %s\n", v.Policy, v.Details)
		}
	}
	if len(a.AnomaliesDetected) > 0 {
		fmt.Fprintln(w, "  Anomalies Detected:")
		for _, an := range a.AnomaliesDetected {
			fmt.Fprintf(w, "    - %s: %s\n", an.Anomaly, an.Details)
		}
	}

	detected := "No"
	if a.SuspiciousLanguage.Detected {
		detected = "Yes"
	}
	fmt.Fprintf(w, "  Suspicious Language: %s - %s\n", detected, a.SuspiciousLanguage.Notes)
	fmt.Fprintf(w, "  Recommended Action: %s\n", a.RecommendedAction)
}

func printHistory(w io.Writer, entries []entity.ExpenseEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tDATE\tVENDOR\tCATEGORY\tAMOUNT\tRISK\tFLAGGED")
	for _, e := range entries {
		risk, flagged := ai.NotAvailable, ai.NotAvailable
		if e.Analysis != nil {
			risk = string(e.Analysis.RiskScore)
			flagged = "No"
			if e.Analysis.IsFlagged {
				flagged = "Yes"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.EmployeeName, e.Date, export.Truncate(e.Vendor, 30), e.Category,
			export.FormatCurrency(e.Amount, e.Currency), risk, flagged)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s export.Summary) {
	for _, row := range s.Rows() {
		fmt.Fprintf(w, "%-28s %s\n", row.Label, row.Value)
	}
	if note := s.MixedCurrencyNote(); note != "" {
		fmt.Fprintln(w, note)
	}
}
