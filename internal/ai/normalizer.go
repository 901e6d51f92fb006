package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// Placeholder texts substituted for missing or malformed fields
const (
	NotAvailable             = "N/A"
	DefaultSummary           = "No summary provided."
	DefaultLanguageNotes     = "No specific notes."
	DefaultRecommendedAction = "Review recommended."

	FallbackSummary           = "Error processing AI analysis. The response from the AI was not in the expected format."
	FallbackLanguageNotes     = "Analysis incomplete due to parsing error."
	FallbackRecommendedAction = "Manual review required due to AI processing error."
)

var fenceRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?\\s*```$")

// FallbackResult is the conservative result used whenever a reply cannot be
// parsed or the model could not be reached.
func FallbackResult() entity.AnalysisResult {
	return entity.AnalysisResult{
		RiskScore:         entity.RiskUnknown,
		IsFlagged:         true,
		Summary:           FallbackSummary,
		PolicyViolations:  []entity.PolicyViolation{},
		AnomaliesDetected: []entity.Anomaly{},
		SuspiciousLanguage: entity.SuspiciousLanguage{
			Detected: false,
			Notes:    FallbackLanguageNotes,
		},
		RecommendedAction: FallbackRecommendedAction,
	}
}

// Normalize maps a raw model reply onto a fully populated AnalysisResult.
// It never fails: unparseable input yields FallbackResult.
func Normalize(raw string) entity.AnalysisResult {
	text := stripFence(strings.TrimSpace(raw))

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		return FallbackResult()
	}

	lang, _ := doc["suspiciousLanguage"].(map[string]any)

	return entity.AnalysisResult{
		RiskScore:          entity.ParseRiskLevel(stringField(doc, "riskScore", "")),
		IsFlagged:          boolField(doc, "isFlagged"),
		Summary:            stringField(doc, "summary", DefaultSummary),
		PolicyViolations:   violations(doc["policyViolations"]),
		AnomaliesDetected:  anomalies(doc["anomaliesDetected"]),
		SuspiciousLanguage: entity.SuspiciousLanguage{
			Detected: boolField(lang, "detected"),
			Notes:    stringField(lang, "notes", DefaultLanguageNotes),
		},
		RecommendedAction: stringField(doc, "recommendedAction", DefaultRecommendedAction),
	}
}

func stripFence(text string) string {
	if m := fenceRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// stringField returns m[key] when it is a non-empty string, else def
func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func violations(v any) []entity.PolicyViolation {
	items, _ := v.([]any)
	out := make([]entity.PolicyViolation, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		out = append(out, entity.PolicyViolation{
			Policy:  stringField(m, "policy", NotAvailable),
			Details: stringField(m, "details", NotAvailable),
		})
	}
	return out
}

func anomalies(v any) []entity.Anomaly {
	items, _ := v.([]any)
	out := make([]entity.Anomaly, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		out = append(out, entity.Anomaly{
			Anomaly: stringField(m, "anomaly", NotAvailable),
			Details: stringField(m, "details", NotAvailable),
		})
	}
	return out
}
