package entity

// AnalysisResult is the outcome of analysing one expense.
// Lists are never nil once produced by the normalizer.
type AnalysisResult struct {
	RiskScore          RiskLevel          `json:"riskScore"`
	IsFlagged          bool               `json:"isFlagged"`
	Summary            string             `json:"summary"`
	PolicyViolations   []PolicyViolation  `json:"policyViolations"`
	AnomaliesDetected  []Anomaly          `json:"anomaliesDetected"`
	SuspiciousLanguage SuspiciousLanguage `json:"suspiciousLanguage"`
	RecommendedAction  string             `json:"recommendedAction"`
}

// PolicyViolation names a company rule the expense appears to breach
type PolicyViolation struct {
	Policy  string `json:"policy"`
	Details string `json:"details"`
}

// Anomaly is an irregularity not tied to a named policy
type Anomaly struct {
	Anomaly string `json:"anomaly"`
	Details string `json:"details"`
}

// SuspiciousLanguage holds observations about the description's wording
type SuspiciousLanguage struct {
	Detected bool   `json:"detected"`
	Notes    string `json:"notes"`
}

// NeedsDetail reports whether the result warrants a detailed write-up:
// flagged, or High/Medium risk.
func (r *AnalysisResult) NeedsDetail() bool {
	if r == nil {
		return false
	}
	return r.IsFlagged || r.RiskScore == RiskHigh || r.RiskScore == RiskMedium
}
