// Package chat exposes a thin conversational pass-through to the model
// gateway: callers supply a message history and, optionally, a JSON schema
// the reply must conform to.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kyotake/machivoice/internal/llm"
)

// ErrEmptyMessages is returned when a request carries no messages.
var ErrEmptyMessages = errors.New("messages are empty")

// Service generates chat replies via the model gateway.
type Service struct {
	provider llm.Provider
	model    string
}

// NewService creates a chat service.
func NewService(provider llm.Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Result is a generated reply: Text for plain replies, JSON when the
// caller supplied a schema and the gateway honored it.
type Result struct {
	Text string
	JSON json.RawMessage
}

// Invoke generates a reply for the given history. When schema is non-empty
// the gateway is constrained to it and the reply is returned as JSON; a
// non-JSON reply under a schema falls back to plain text.
func (s *Service) Invoke(ctx context.Context, messages []llm.Message, schema json.RawMessage) (*Result, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}

	req := llm.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	}
	if len(schema) > 0 {
		req.Schema = &llm.ResponseSchema{Name: "chat_reply", Schema: schema, Strict: true}
	}

	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("model gateway: %w", err)
	}

	if len(schema) > 0 && json.Valid([]byte(resp.Content)) {
		return &Result{JSON: json.RawMessage(resp.Content)}, nil
	}
	return &Result{Text: resp.Content}, nil
}
