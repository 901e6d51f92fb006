package entity

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/ai-expense-auditor/pkg/utils"
)

// ExpenseInput is what the employee submits, before an id or analysis exists
type ExpenseInput struct {
	EmployeeName string   `json:"employeeName"`
	Date         string   `json:"date"` // YYYY-MM-DD
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency"`
	Vendor       string   `json:"vendor"`
	Category     Category `json:"category"`
	Description  string   `json:"description"`
}

// ExpenseEntry is one submitted report line held by the report store
type ExpenseEntry struct {
	ID                  string          `json:"id"`
	EmployeeName        string          `json:"employeeName"`
	Date                string          `json:"date"`
	Amount              float64         `json:"amount"`
	Currency            string          `json:"currency"`
	Vendor              string          `json:"vendor"`
	Category            Category        `json:"category"`
	Description         string          `json:"description"`
	ReceiptImageName    string          `json:"receiptImageName,omitempty"`
	ReceiptImageDataURL string          `json:"receiptImageDataUrl,omitempty"`
	Analysis            *AnalysisResult `json:"analysis"`
}

// Receipt is an image attached to a submission
type Receipt struct {
	Name     string
	MimeType string
	Data     []byte
}

// Base64 returns the image payload as standard base64
func (r *Receipt) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// DataURI returns the receipt as a displayable data URI
func (r *Receipt) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", r.MimeType, r.Base64())
}

// Normalize trims free-text fields and fills in the default currency
func (in *ExpenseInput) Normalize() {
	in.EmployeeName = strings.TrimSpace(utils.SanitizeString(in.EmployeeName))
	in.Date = strings.TrimSpace(in.Date)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	in.Vendor = strings.TrimSpace(utils.SanitizeString(in.Vendor))
	in.Description = strings.TrimSpace(utils.SanitizeString(in.Description))
}

// Validate checks the submission before any external call is made
func (in *ExpenseInput) Validate() error {
	if in.EmployeeName == "" || in.Date == "" || in.Vendor == "" || in.Description == "" {
		return &ValidationError{Field: "form", Message: "Please fill in all required fields."}
	}
	if err := utils.ValidateAmount(in.Amount); err != nil {
		return &ValidationError{Field: "amount", Message: "Please enter a valid positive amount."}
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return &ValidationError{Field: "date", Message: "Date must be in YYYY-MM-DD format."}
	}
	if err := utils.ValidateCurrency(in.Currency); err != nil {
		return &ValidationError{Field: "currency", Message: "Currency must be a three-letter code."}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("Unknown category %q.", in.Category)}
	}
	return nil
}

// NewEntry creates a pending entry from the submission
func NewEntry(id string, in ExpenseInput, receipt *Receipt) ExpenseEntry {
	entry := ExpenseEntry{
		ID:           id,
		EmployeeName: in.EmployeeName,
		Date:         in.Date,
		Amount:       in.Amount,
		Currency:     in.Currency,
		Vendor:       in.Vendor,
		Category:     in.Category,
		Description:  in.Description,
	}
	if receipt != nil {
		entry.ReceiptImageName = receipt.Name
		entry.ReceiptImageDataURL = receipt.DataURI()
	}
	return entry
}
