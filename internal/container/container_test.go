package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/config"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

type cannedCompleter struct {
	content string
}

func (c cannedCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: c.content}},
	}}, nil
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "data", "expenses.db"), MaxOpenConns: 1, MaxIdleConns: 1},
		OpenAI:   config.OpenAIConfig{Model: "gpt-4o-mini", AnalysisTemperature: 0.2, ChatTemperature: 0.7, Timeout: time.Second},
		Receipt:  config.ReceiptConfig{MaxBytes: 5 << 20},
		Export:   config.ExportConfig{OutputDir: filepath.Join(dir, "reports"), CompanyName: "ACME"},
	}
}

func TestNewContainerValidates(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	cfg := testConfig(t.TempDir())
	_, err = NewContainer(cfg, nil)
	assert.Error(t, err)

	cfg.Receipt.MaxBytes = 0
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainerLifecyclePersistsHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	completer := WithCompleter(cannedCompleter{content: `{"riskScore":"Low","isFlagged":false,"summary":"Fine"}`})

	c, err := NewContainer(cfg, zap.NewNop(), completer)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()))
	assert.True(t, c.Health().Overall)

	entry, err := c.Services().Expenses.Submit(context.Background(), entity.ExpenseInput{
		EmployeeName: "A. Lee",
		Date:         "2024-03-01",
		Amount:       12,
		Vendor:       "Cafe",
		Category:     entity.CategoryMeals,
		Description:  "coffee",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.RiskLow, entry.Analysis.RiskScore)
	require.NoError(t, c.Reports().SetTheme(context.Background(), entity.ThemeDark))

	path, err := c.Services().Reports.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))

	reopened, err := NewContainer(cfg, zap.NewNop(), completer)
	require.NoError(t, err)
	require.NoError(t, reopened.Start(context.Background()))
	defer reopened.Close()

	entries := reopened.Services().Expenses.List()
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, entity.ThemeDark, reopened.Reports().Theme())
	assert.NotNil(t, reopened.HTTPServer().Router())
}

func TestHealthWithoutKey(t *testing.T) {
	c, err := NewContainer(testConfig(t.TempDir()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	health := c.Health()
	assert.False(t, health.Overall)
	assert.False(t, health.Components["openai"].Healthy)
	assert.True(t, health.Components["database"].Healthy)
}
