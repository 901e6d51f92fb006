// Package export renders the expense history as a summary, a PDF report and
// an Excel workbook.
package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// Summary aggregates the expense history.
//
// TotalAmount is a raw sum across entries labelled with the first entry's
// currency. MixedCurrencies is set when that label does not hold for every
// entry.
type Summary struct {
	Count           int     `json:"count"`
	TotalAmount     float64 `json:"totalAmount"`
	Currency        string  `json:"currency"`
	Flagged         int     `json:"flagged"`
	High            int     `json:"high"`
	Medium          int     `json:"medium"`
	Low             int     `json:"low"`
	Pending         int     `json:"pending"`
	MixedCurrencies bool    `json:"mixedCurrencies"`
}

// SummaryRow is one labelled line of the summary block
type SummaryRow struct {
	Label string
	Value string
}

// Summarize computes the aggregate view of entries
func Summarize(entries []entity.ExpenseEntry) Summary {
	s := Summary{Count: len(entries), Currency: entity.DefaultCurrency}
	if len(entries) > 0 {
		s.Currency = entries[0].Currency
	}

	for _, e := range entries {
		s.TotalAmount += e.Amount
		if e.Currency != s.Currency {
			s.MixedCurrencies = true
		}

		if e.Analysis == nil {
			s.Pending++
			continue
		}
		if e.Analysis.IsFlagged {
			s.Flagged++
		}
		switch e.Analysis.RiskScore {
		case entity.RiskHigh:
			s.High++
		case entity.RiskMedium:
			s.Medium++
		case entity.RiskLow:
			s.Low++
		}
	}
	return s
}

// Rows returns the summary lines in display order. Pending only appears
// when non-zero.
func (s Summary) Rows() []SummaryRow {
	rows := []SummaryRow{
		{"Total Expenses Submitted:", strconv.Itoa(s.Count)},
		{"Total Amount Submitted:", FormatCurrency(s.TotalAmount, s.Currency)},
		{"Flagged for Review:", strconv.Itoa(s.Flagged)},
		{"High Risk:", strconv.Itoa(s.High)},
		{"Medium Risk:", strconv.Itoa(s.Medium)},
		{"Low Risk:", strconv.Itoa(s.Low)},
	}
	if s.Pending > 0 {
		rows = append(rows, SummaryRow{"Pending Analysis:", strconv.Itoa(s.Pending)})
	}
	return rows
}

// MixedCurrencyNote explains how a mixed-currency total was computed. It is
// empty when every entry shares the summary currency.
func (s Summary) MixedCurrencyNote() string {
	if !s.MixedCurrencies {
		return ""
	}
	return fmt.Sprintf("Note: entries use more than one currency; the total is a raw sum labelled %s.", s.Currency)
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// FormatCurrency renders an amount with its currency symbol, or the code
// when no symbol is known: "$1,234.50", "CHF 12.00".
func FormatCurrency(amount float64, currency string) string {
	num := FormatAmount(amount)
	if sym, ok := currencySymbols[currency]; ok {
		if strings.HasPrefix(num, "-") {
			return "-" + sym + num[1:]
		}
		return sym + num
	}
	return currency + " " + num
}

// FormatAmount renders an amount with two decimals and thousands separators
func FormatAmount(amount float64) string {
	num := strconv.FormatFloat(math.Round(math.Abs(amount)*100)/100, 'f', 2, 64)
	whole, frac, _ := strings.Cut(num, ".")

	var b strings.Builder
	if amount < 0 && num != "0.00" {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Truncate shortens s to at most limit runes, ending with "..." when cut
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
