package entity

import "fmt"

// CompanyPolicy is a static company rule supplied to every analysis
type CompanyPolicy struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

// String renders the policy as a single prompt line
func (p CompanyPolicy) String() string {
	if p.Details == "" {
		return p.Description
	}
	return fmt.Sprintf("%s (%s)", p.Description, p.Details)
}
