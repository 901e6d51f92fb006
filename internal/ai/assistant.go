package ai

import (
	"context"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/policy"
)

const policyPreamble = "\n\nRelevant Company Policies you MUST refer to when applicable:\n"

// session is one ongoing dialogue: the persona followed by completed turns
type session struct {
	messages []openai.ChatCompletionMessage
}

// Assistant answers free-text questions about the app and its policies. It
// holds at most one session, created on first use.
type Assistant struct {
	client   ChatCompleter
	prompts  *PromptSet
	policies []entity.CompanyPolicy
	opts     ModelOptions
	logger   *zap.Logger

	mu      sync.Mutex
	session *session
}

// NewAssistant creates a new assistant client
func NewAssistant(client ChatCompleter, prompts *PromptSet, policies []entity.CompanyPolicy, opts ModelOptions, logger *zap.Logger) *Assistant {
	return &Assistant{
		client:   client,
		prompts:  prompts,
		policies: policies,
		opts:     opts,
		logger:   logger,
	}
}

// Greeting is the first message shown when the chat opens
func (a *Assistant) Greeting() string {
	return a.prompts.ChatGreeting
}

// HasSession reports whether a dialogue is in progress
func (a *Assistant) HasSession() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// Close discards the current session
func (a *Assistant) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
}

// Send forwards one user turn and returns the reply. Failed turns are not
// kept in the session. Auth and generic failures discard the session so the
// next call starts a fresh one.
func (a *Assistant) Send(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		a.session = a.newSession()
		a.logger.Debug("Assistant session created")
	}

	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	messages := make([]openai.ChatCompletionMessage, 0, len(a.session.messages)+1)
	messages = append(messages, a.session.messages...)
	messages = append(messages, userMsg)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		te := classifyChatError(err)
		if te.Kind == KindAuth || te.Kind == KindOther {
			a.session = nil
		}
		a.logger.Error("Assistant call failed",
			zap.Stringer("kind", te.Kind),
			zap.Bool("session_reset", a.session == nil),
			zap.Error(err))
		return "", te
	}

	reply := firstContent(resp)
	if strings.TrimSpace(reply) == "" {
		a.logger.Warn("Empty assistant response")
		return "", emptyResponseError("AI Assistant")
	}

	a.session.messages = append(a.session.messages, userMsg, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	})
	return reply, nil
}

func (a *Assistant) newSession() *session {
	persona := a.prompts.ChatSystem + policyPreamble + policy.Render(a.policies)
	return &session{
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: persona},
		},
	}
}
