package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Prompts  PromptsConfig  `mapstructure:"prompts"`
	Policies PoliciesConfig `mapstructure:"policies"`
	Receipt  ReceiptConfig  `mapstructure:"receipt"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds the local HTTP API configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the local key-value storage configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds model API configuration
type OpenAIConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	AnalysisTemperature float32       `mapstructure:"analysis_temperature"`
	ChatTemperature     float32       `mapstructure:"chat_temperature"`
	MaxTokens           int           `mapstructure:"max_tokens"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// PromptsConfig points at an optional YAML prompt override file
type PromptsConfig struct {
	Path string `mapstructure:"path"`
}

// PoliciesConfig points at an optional JSON policy catalog override
type PoliciesConfig struct {
	Path string `mapstructure:"path"`
}

// ReceiptConfig holds receipt upload limits
type ReceiptConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// ExportConfig holds report generation configuration
type ExportConfig struct {
	OutputDir   string        `mapstructure:"output_dir"`
	CompanyName string        `mapstructure:"company_name"`
	Logo        string        `mapstructure:"logo"`
	LogoTimeout time.Duration `mapstructure:"logo_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional .env file, an optional YAML file
// and environment variables. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("EXPENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults: local only
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("database.path", "data/expenses.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.analysis_temperature", 0.2)
	v.SetDefault("openai.chat_temperature", 0.7)
	v.SetDefault("openai.max_tokens", 1500)
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("receipt.max_bytes", 5*1024*1024)

	v.SetDefault("export.output_dir", "reports")
	v.SetDefault("export.company_name", "HERE AND NOW-AI RESEARCH INSTITUTE")
	v.SetDefault("export.logo_timeout", 5*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds the well-known environment variables
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"openai.base_url": "OPENAI_BASE_URL",
		"database.path":   "EXPENSE_DB_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required")
	}
	if c.OpenAI.AnalysisTemperature < 0 || c.OpenAI.AnalysisTemperature > 2 {
		return fmt.Errorf("openai.analysis_temperature must be between 0 and 2")
	}
	if c.OpenAI.ChatTemperature < 0 || c.OpenAI.ChatTemperature > 2 {
		return fmt.Errorf("openai.chat_temperature must be between 0 and 2")
	}
	if c.Receipt.MaxBytes <= 0 {
		return fmt.Errorf("receipt.max_bytes must be positive")
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// RequireAPIKey reports an error when no model credential is configured.
// Commands that never reach the model (history, export, theme) skip it.
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (set OPENAI_API_KEY)")
	}
	return nil
}
