package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/dictation"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/export"
	"github.com/garyjia/ai-expense-auditor/internal/policy"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "submit", "history", "summary", "export", "clear", "chat", "theme", "policies", "categories", "check"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestCommandFlags(t *testing.T) {
	for _, name := range []string{"employee", "date", "amount", "currency", "vendor", "category", "description", "receipt", "json"} {
		require.NotNil(t, submitCmd.Flags().Lookup(name), "submit should have --%s", name)
	}
	assert.Equal(t, "USD", submitCmd.Flags().Lookup("currency").DefValue)
	assert.Equal(t, "0", serveCmd.Flags().Lookup("port").DefValue)
	assert.Equal(t, "false", clearCmd.Flags().Lookup("yes").DefValue)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestExportArgs(t *testing.T) {
	assert.NoError(t, exportCmd.Args(exportCmd, []string{"pdf"}))
	assert.NoError(t, exportCmd.Args(exportCmd, []string{"xlsx"}))
	assert.Error(t, exportCmd.Args(exportCmd, []string{"docx"}))
	assert.Error(t, exportCmd.Args(exportCmd, nil))
	assert.Error(t, themeCmd.Args(themeCmd, []string{"neon"}))
}

func TestPrintEntry(t *testing.T) {
	var out bytes.Buffer
	printEntry(&out, entity.ExpenseEntry{
		ID: "e1", EmployeeName: "A. Lee", Date: "2024-03-01", Vendor: "City Bistro", Amount: 82, Currency: "USD",
		Analysis: &entity.AnalysisResult{
			RiskScore:          entity.RiskMedium,
			IsFlagged:          true,
			Summary:            "Exceeds meal limit",
			PolicyViolations:   []entity.PolicyViolation{{Policy: "MEAL_LIMIT", Details: "82 > 75"}},
			AnomaliesDetected:  []entity.Anomaly{},
			SuspiciousLanguage: entity.SuspiciousLanguage{Notes: "None"},
			RecommendedAction:  "Ask for itemized receipt",
		},
	})

	text := out.String()
	assert.Contains(t, text, "A. Lee - 2024-03-01 - City Bistro ($82.00)")
	assert.Contains(t, text, "Risk: Medium (Flagged)")
	assert.Contains(t, text, "- MEAL_LIMIT: 82 > 75")
	assert.NotContains(t, text, "Anomalies Detected")
	assert.Contains(t, text, "Recommended Action: Ask for itemized receipt")

	out.Reset()
	printEntry(&out, entity.ExpenseEntry{ID: "p"})
	assert.Contains(t, out.String(), "Analysis pending")
}

func TestPrintHistoryAndSummary(t *testing.T) {
	entries := []entity.ExpenseEntry{
		{ID: "1", EmployeeName: "A", Date: "2024-03-01", Vendor: "V", Category: entity.CategoryMeals, Amount: 10, Currency: "USD",
			Analysis: &entity.AnalysisResult{RiskScore: entity.RiskHigh, IsFlagged: true}},
		{ID: "2", EmployeeName: "B", Date: "2024-03-02", Vendor: "W", Category: entity.CategoryOther, Amount: 5, Currency: "EUR"},
	}

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, entries))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "High")
	assert.Contains(t, lines[2], "N/A")

	out.Reset()
	printSummary(&out, export.Summarize(entries))
	assert.Contains(t, out.String(), "Total Expenses Submitted:")
	assert.Contains(t, out.String(), "$15.00")
	assert.Contains(t, out.String(), "Note: entries use more than one currency")

	out.Reset()
	entries[1].Currency = "USD"
	printSummary(&out, export.Summarize(entries))
	assert.Contains(t, out.String(), "$15.00")
	assert.NotContains(t, out.String(), "Note:")
}

type scriptedAssistant struct {
	replies map[string]string
	closed  bool
}

func (a *scriptedAssistant) Greeting() string { return "Hi there!" }

func (a *scriptedAssistant) Send(_ context.Context, text string) (string, error) {
	if r, ok := a.replies[text]; ok {
		return r, nil
	}
	return "", &ai.TransportError{Kind: ai.KindOther, Message: "AI Assistant failed to respond: offline", Err: errors.New("offline")}
}

func (a *scriptedAssistant) Close() { a.closed = true }

func TestRunChat(t *testing.T) {
	assistant := &scriptedAssistant{replies: map[string]string{"meal limit?": "$75 per person."}}
	chat := service.NewChatService(assistant, zap.NewNop())
	input := strings.NewReader("meal limit?\n\nsomething else\n/quit\nnever sent\n")

	var out bytes.Buffer
	err := runChat(context.Background(), chat, dictation.NewLineSource(input), &out, zap.NewNop())
	require.NoError(t, err)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Assistant: Hi there!\n"))
	assert.Contains(t, text, "Assistant: $75 per person.\n")
	assert.Contains(t, text, "Assistant (error): Sorry, I encountered an error: AI Assistant failed to respond: offline. Please try again.\n")
	assert.NotContains(t, text, "never sent")
	assert.True(t, assistant.closed)
	assert.Empty(t, chat.Messages())
}

func TestRunChatEndsOnEOF(t *testing.T) {
	chat := service.NewChatService(&scriptedAssistant{}, zap.NewNop())
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), chat, dictation.NewLineSource(strings.NewReader("")), &out, zap.NewNop()))
	assert.Equal(t, "Assistant: Hi there!\n", out.String())
}

type stubAnalyzer struct {
	result entity.AnalysisResult
	err    error
}

func (s stubAnalyzer) Analyze(context.Context, entity.ExpenseInput, []entity.CompanyPolicy, *entity.Receipt) (entity.AnalysisResult, error) {
	return s.result, s.err
}

func TestRunCheck(t *testing.T) {
	catalog := policy.Default()

	var out bytes.Buffer
	err := runCheck(context.Background(), stubAnalyzer{result: entity.AnalysisResult{
		RiskScore: entity.RiskMedium, IsFlagged: true, Summary: "Over the meal limit", RecommendedAction: "Review",
	}}, catalog, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "against 8 policies")
	assert.Contains(t, out.String(), "Risk: Medium (Flagged)")

	err = runCheck(context.Background(), stubAnalyzer{result: ai.FallbackResult()}, catalog, &bytes.Buffer{})
	assert.Error(t, err)

	quota := &ai.TransportError{Kind: ai.KindQuota, Message: "limit"}
	err = runCheck(context.Background(), stubAnalyzer{err: quota}, catalog, &bytes.Buffer{})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "over quota")
}
