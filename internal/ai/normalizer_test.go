package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

const mealLimitReply = `{"riskScore":"Medium","isFlagged":true,"summary":"Exceeds meal limit","policyViolations":[{"policy":"MEAL_LIMIT","details":"82 > 75"}],"anomaliesDetected":[],"suspiciousLanguage":{"detected":false,"notes":"none"},"recommendedAction":"Request justification"}`

func TestNormalizeWellFormed(t *testing.T) {
	got := Normalize(mealLimitReply)

	assert.Equal(t, entity.RiskMedium, got.RiskScore)
	assert.True(t, got.IsFlagged)
	assert.Equal(t, "Exceeds meal limit", got.Summary)
	require.Len(t, got.PolicyViolations, 1)
	assert.Equal(t, "MEAL_LIMIT", got.PolicyViolations[0].Policy)
	assert.Equal(t, "82 > 75", got.PolicyViolations[0].Details)
	assert.NotNil(t, got.AnomaliesDetected)
	assert.Empty(t, got.AnomaliesDetected)
	assert.Equal(t, entity.SuspiciousLanguage{Detected: false, Notes: "none"}, got.SuspiciousLanguage)
	assert.Equal(t, "Request justification", got.RecommendedAction)
}

func TestNormalizeStripsFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "json fence", raw: "```json\n" + mealLimitReply + "\n```"},
		{name: "bare fence", raw: "```\n" + mealLimitReply + "\n```"},
		{name: "surrounding whitespace", raw: "  \n```json " + mealLimitReply + "```\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Normalize(mealLimitReply), Normalize(tt.raw))
		})
	}
}

func TestNormalizeMalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback bool
	}{
		{name: "empty", raw: "", fallback: true},
		{name: "not json", raw: "not json at all", fallback: true},
		{name: "truncated", raw: `{"riskScore":"High"`, fallback: true},
		{name: "array", raw: `[1,2,3]`, fallback: true},
		{name: "string", raw: `"High"`, fallback: true},
		{name: "null", raw: `null`, fallback: true},
		{name: "empty object", raw: `{}`},
		{name: "wrong types", raw: `{"riskScore":3,"isFlagged":"yes","summary":false,"policyViolations":"none","anomaliesDetected":{"a":1},"suspiciousLanguage":[],"recommendedAction":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assertPopulated(t, got)
			if tt.fallback {
				assert.Equal(t, FallbackResult(), got)
				return
			}
			assert.Equal(t, entity.RiskUnknown, got.RiskScore)
			assert.False(t, got.IsFlagged)
			assert.Equal(t, DefaultSummary, got.Summary)
			assert.Empty(t, got.PolicyViolations)
			assert.Empty(t, got.AnomaliesDetected)
			assert.False(t, got.SuspiciousLanguage.Detected)
			assert.Equal(t, DefaultLanguageNotes, got.SuspiciousLanguage.Notes)
			assert.Equal(t, DefaultRecommendedAction, got.RecommendedAction)
		})
	}
}

func TestNormalizeNestedDefaults(t *testing.T) {
	raw := `{"riskScore":"High","policyViolations":[{"policy":"ALCOHOL"},{"details":""},"junk"],"anomaliesDetected":[{"details":"late night"}]}`

	got := Normalize(raw)

	assert.Equal(t, []entity.PolicyViolation{
		{Policy: "ALCOHOL", Details: NotAvailable},
		{Policy: NotAvailable, Details: NotAvailable},
		{Policy: NotAvailable, Details: NotAvailable},
	}, got.PolicyViolations)
	assert.Equal(t, []entity.Anomaly{{Anomaly: NotAvailable, Details: "late night"}}, got.AnomaliesDetected)
}

func TestNormalizeRiskTokens(t *testing.T) {
	tests := []struct {
		token string
		want  entity.RiskLevel
	}{
		{"Low", entity.RiskLow},
		{"Medium", entity.RiskMedium},
		{"High", entity.RiskHigh},
		{"Unknown", entity.RiskUnknown},
		{"high", entity.RiskUnknown},
		{"LOW", entity.RiskUnknown},
		{" Medium", entity.RiskUnknown},
		{"Critical", entity.RiskUnknown},
		{"", entity.RiskUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			raw, err := json.Marshal(map[string]any{"riskScore": tt.token})
			require.NoError(t, err)
			assert.Equal(t, tt.want, Normalize(string(raw)).RiskScore)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		mealLimitReply,
		"not json at all",
		`{}`,
		`{"riskScore":"Low","policyViolations":[{}],"suspiciousLanguage":{"detected":true}}`,
	}

	for _, raw := range inputs {
		first := Normalize(raw)
		data, err := json.Marshal(first)
		require.NoError(t, err)
		assert.Equal(t, first, Normalize(string(data)), "input %q", raw)
	}
}

func assertPopulated(t *testing.T, r entity.AnalysisResult) {
	t.Helper()
	assert.NotEmpty(t, r.RiskScore)
	assert.NotEmpty(t, r.Summary)
	assert.NotNil(t, r.PolicyViolations)
	assert.NotNil(t, r.AnomaliesDetected)
	assert.NotEmpty(t, r.SuspiciousLanguage.Notes)
	assert.NotEmpty(t, r.RecommendedAction)
}
