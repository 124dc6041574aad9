// Package llm wraps the chat-completion endpoint that produces widget
// replies. The provider-reported token count is the authoritative usage
// figure; a length-based estimate is the documented fallback and is always
// marked as such.
package llm

import (
	"context"
	"errors"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Message  string    `json:"message"`
	History  []Message `json:"conversation_history"`
	Language string    `json:"language,omitempty"`
}

type Completion struct {
	Reply         string `json:"reply"`
	TokensUsed    int64  `json:"tokens_used"`
	CostEstimated bool   `json:"cost_estimated"`
	Model         string `json:"model"`
}

type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

var (
	ErrMissingMessage = errors.New("missing_message")
	ErrMissingAPIKey  = errors.New("missing_api_key")
	ErrEmptyReply     = errors.New("empty_reply")
)
