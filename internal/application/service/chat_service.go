package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/application/port"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// ErrEmptyMessage is returned when a blank message is sent
var ErrEmptyMessage = &entity.ValidationError{Field: "message", Message: "Message cannot be empty."}

// ChatService holds the transcript of an open assistant window
type ChatService interface {
	// Open starts a transcript with the greeting. Reopening an open window
	// returns the existing greeting.
	Open() entity.ChatMessage
	// Send records the user message and the assistant reply. Failures are
	// recorded as an error-flagged assistant message and also returned.
	Send(ctx context.Context, text string) (entity.ChatMessage, error)
	Messages() []entity.ChatMessage
	// Close discards the transcript and the assistant session
	Close()
	Typing() bool
}

type chatServiceImpl struct {
	assistant port.ChatAssistant
	newID     func() string
	now       func() time.Time
	logger    *zap.Logger

	mu       sync.Mutex
	turn     sync.Mutex
	messages []entity.ChatMessage
	typing   bool
}

// NewChatService creates a new ChatService
func NewChatService(assistant port.ChatAssistant, logger *zap.Logger) ChatService {
	return &chatServiceImpl{
		assistant: assistant,
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *chatServiceImpl) Open() entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) > 0 {
		return s.messages[0]
	}
	greeting := s.message(s.assistant.Greeting(), entity.SenderAssistant, false)
	s.messages = append(s.messages, greeting)
	return greeting
}

func (s *chatServiceImpl) Send(ctx context.Context, text string) (entity.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.ChatMessage{}, ErrEmptyMessage
	}

	s.Open()

	// one turn at a time, the transcript stays in order
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	s.messages = append(s.messages, s.message(text, entity.SenderUser, false))
	s.typing = true
	s.mu.Unlock()

	reply, err := s.assistant.Send(ctx, text)

	var out entity.ChatMessage
	if err != nil {
		s.logger.Warn("Assistant turn failed", zap.Error(err))
		out = s.message(fmt.Sprintf("Sorry, I encountered an error: %s. Please try again.", strings.TrimSuffix(err.Error(), ".")), entity.SenderAssistant, true)
	} else {
		out = s.message(reply, entity.SenderAssistant, false)
	}

	s.mu.Lock()
	s.messages = append(s.messages, out)
	s.typing = false
	s.mu.Unlock()

	return out, err
}

func (s *chatServiceImpl) Messages() []entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *chatServiceImpl) Close() {
	s.turn.Lock()
	defer s.turn.Unlock()

	s.mu.Lock()
	s.messages = nil
	s.typing = false
	s.mu.Unlock()

	s.assistant.Close()
	s.logger.Debug("Chat closed")
}

func (s *chatServiceImpl) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

func (s *chatServiceImpl) message(text string, sender entity.Sender, failed bool) entity.ChatMessage {
	return entity.ChatMessage{
		ID:        s.newID(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
		Error:     failed,
	}
}
