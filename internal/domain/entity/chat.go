package entity

import "time"

// Sender identifies who wrote a chat message
type Sender string

// Chat senders
const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one turn in the assistant dialogue. Messages live only as
// long as the chat window that holds them.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Error     bool      `json:"error,omitempty"`
}
