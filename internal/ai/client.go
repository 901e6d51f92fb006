package ai

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/garyjia/ai-expense-auditor/internal/config"
)

// ChatCompleter is the part of the OpenAI client used here.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelOptions are the sampling parameters for one kind of call
type ModelOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewClient builds an OpenAI client from configuration
func NewClient(cfg config.OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return openai.NewClientWithConfig(clientCfg)
}

// AnalysisOptions extracts the analysis sampling parameters
func AnalysisOptions(cfg config.OpenAIConfig) ModelOptions {
	return ModelOptions{Model: cfg.Model, Temperature: cfg.AnalysisTemperature, MaxTokens: cfg.MaxTokens}
}

// ChatOptions extracts the assistant sampling parameters
func ChatOptions(cfg config.OpenAIConfig) ModelOptions {
	return ModelOptions{Model: cfg.Model, Temperature: cfg.ChatTemperature, MaxTokens: cfg.MaxTokens}
}

func firstContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
