package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.InDelta(t, 0.2, cfg.OpenAI.AnalysisTemperature, 1e-6)
	assert.InDelta(t, 0.7, cfg.OpenAI.ChatTemperature, 1e-6)
	assert.Equal(t, int64(5*1024*1024), cfg.Receipt.MaxBytes)
	assert.Equal(t, 5*time.Second, cfg.Export.LogoTimeout)
	assert.Error(t, cfg.RequireAPIKey())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
openai:
  model: gpt-4o
  chat_temperature: 0.5
export:
  company_name: ACME
  logo: https://example.com/logo.png
`), 0644))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EXPENSE_DB_PATH", "/tmp/expenses-test.db")
	t.Setenv("EXPENSE_RECEIPT_MAX_BYTES", "1024")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.InDelta(t, 0.5, cfg.OpenAI.ChatTemperature, 1e-6)
	assert.Equal(t, "ACME", cfg.Export.CompanyName)
	assert.Equal(t, "https://example.com/logo.png", cfg.Export.Logo)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "/tmp/expenses-test.db", cfg.Database.Path)
	assert.Equal(t, int64(1024), cfg.Receipt.MaxBytes)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "x.db"},
			OpenAI:   OpenAIConfig{Model: "gpt-4o-mini", AnalysisTemperature: 0.2, ChatTemperature: 0.7},
			Receipt:  ReceiptConfig{MaxBytes: 1},
			Export:   ExportConfig{OutputDir: "reports"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no database path", func(c *Config) { c.Database.Path = "" }},
		{"no model", func(c *Config) { c.OpenAI.Model = "" }},
		{"analysis temperature", func(c *Config) { c.OpenAI.AnalysisTemperature = 3 }},
		{"chat temperature", func(c *Config) { c.OpenAI.ChatTemperature = -1 }},
		{"receipt limit", func(c *Config) { c.Receipt.MaxBytes = 0 }},
		{"output dir", func(c *Config) { c.Export.OutputDir = "" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
