// Package policy holds the company expense rules supplied to every analysis
// request and to the assistant persona.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

var defaultPolicies = []entity.CompanyPolicy{
	{ID: "MEAL_LIMIT", Description: "Max meal expense per person: $75.", Details: "Applies to individual meals unless client entertainment with prior approval."},
	{ID: "TRAVEL_CLASS", Description: "Travel: Economy class flights for domestic, Premium Economy for international flights over 6 hours.", Details: "Business class requires VP approval."},
	{ID: "GIFTS_GOVT", Description: "No gifts to government officials or their families.", Details: "Strictly prohibited."},
	{ID: "ALCOHOL", Description: "Alcohol: Generally not reimbursable.", Details: "Reimbursable only for pre-approved client entertainment events with itemized receipts."},
	{ID: "UNUSUAL_HOURS", Description: "Expenses submitted for activities occurring between 10 PM and 6 AM local time require additional justification.", Details: "Clearly state business purpose for off-hours activity."},
	{ID: "VENDOR_FREQUENCY", Description: "More than 3 claims from the same non-contracted vendor in a single month for amounts over $100 each may be flagged.", Details: "Consider preferred vendors or bulk purchasing."},
	{ID: "RECEIPT_REQUIRED", Description: "Receipts required for all expenses over $25.", Details: "Must be itemized and legible."},
	{ID: "EXPENSE_TIMELINESS", Description: "Expenses should be submitted within 30 days of incurring the cost.", Details: "Late submissions require manager approval."},
}

// Catalog is an immutable list of company policies
type Catalog struct {
	policies []entity.CompanyPolicy
}

// Default returns the built-in catalog
func Default() *Catalog {
	return &Catalog{policies: append([]entity.CompanyPolicy(nil), defaultPolicies...)}
}

// Load reads a catalog from a JSON array file. An empty path yields the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policies: %w", err)
	}

	var policies []entity.CompanyPolicy
	if err := json.Unmarshal(data, &policies); err != nil {
		return nil, fmt.Errorf("failed to parse policies: %w", err)
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("policy file %s is empty", path)
	}

	seen := make(map[string]bool, len(policies))
	for i, p := range policies {
		if p.ID == "" || p.Description == "" {
			return nil, fmt.Errorf("policy %d: id and description are required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate policy id %q", p.ID)
		}
		seen[p.ID] = true
	}

	return &Catalog{policies: policies}, nil
}

// Policies returns a copy of the catalog entries
func (c *Catalog) Policies() []entity.CompanyPolicy {
	return append([]entity.CompanyPolicy(nil), c.policies...)
}

// Get looks a policy up by id
func (c *Catalog) Get(id string) (entity.CompanyPolicy, bool) {
	for _, p := range c.policies {
		if p.ID == id {
			return p, true
		}
	}
	return entity.CompanyPolicy{}, false
}

// Render formats policies as "- description (details)" lines
func Render(policies []entity.CompanyPolicy) string {
	var b strings.Builder
	for i, p := range policies {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(p.String())
	}
	return b.String()
}
