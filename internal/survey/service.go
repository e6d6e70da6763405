// Package survey scores conversations for user engagement and keeps the
// per-user score history used to personalize check-in interviews.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kyotake/machivoice/internal/llm"
)

// ErrNoHistory is returned when an opening message is requested for a user
// without any recorded survey entries.
var ErrNoHistory = errors.New("no survey history for user")

// ErrEmptyConversation is returned when there is no conversation to score.
var ErrEmptyConversation = errors.New("conversation is empty")

const openingPrompt = `You are an excellent counselor.
Using the latest health data below, write a short opening greeting that starts a one-on-one check-in naturally and shows you care about the person.

--- latest health data ---
score: %d points (out of 100)
note: %s
--------------------------

Rules:
- The score is for your understanding only. Never mention concrete numbers to the person.
- You are a chat counselor and only see text. Never comment on their face or voice.`

const evaluatePrompt = `You are an expert at analyzing conversations.
Read the conversation below, rate how positive it is overall as a health score from 1 to 100, and briefly note the reason for your rating.

--- conversation ---
%s
--------------------`

const healthSchemaJSON = `{
  "type": "object",
  "properties": {
    "health": {
      "type": "object",
      "properties": {
        "score": {"type": "integer", "description": "Health score from 1 to 100"},
        "note": {"type": "string", "description": "Reason for the score"}
      },
      "required": ["score", "note"],
      "additionalProperties": false
    }
  },
  "required": ["health"],
  "additionalProperties": false
}`

// Service generates check-in openings and scores conversations.
type Service struct {
	provider llm.Provider
	model    string
	store    *Store
}

// NewService creates a survey service.
func NewService(provider llm.Provider, model string, store *Store) *Service {
	return &Service{provider: provider, model: model, store: store}
}

// OpeningMessage generates a personalized check-in opening from the user's
// latest recorded score.
func (s *Service) OpeningMessage(ctx context.Context, uid string) (string, error) {
	latest, err := s.store.LatestForUID(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("loading survey history: %w", err)
	}
	if latest == nil {
		return "", ErrNoHistory
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(openingPrompt, latest.Score, latest.Note)}},
		MaxTokens:   512,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("model gateway: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// EvaluateConversation scores the given conversation and records the result
// for the user.
func (s *Service) EvaluateConversation(ctx context.Context, uid string, history []llm.Message) (*Entry, error) {
	if len(history) == 0 {
		return nil, ErrEmptyConversation
	}

	var transcript strings.Builder
	for _, msg := range history {
		speaker := "User"
		if msg.Role == llm.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&transcript, "%s: %s\n", speaker, msg.Content)
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(evaluatePrompt, transcript.String())}},
		MaxTokens:   512,
		Temperature: 0.3,
		Schema: &llm.ResponseSchema{
			Name:   "health_score",
			Schema: json.RawMessage(healthSchemaJSON),
			Strict: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("model gateway: %w", err)
	}

	var decoded struct {
		Health *struct {
			Score int    `json:"score"`
			Note  string `json:"note"`
		} `json:"health"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &decoded); err != nil || decoded.Health == nil {
		return nil, fmt.Errorf("unexpected reply shape from model: %q", resp.Content)
	}

	return s.store.Insert(ctx, uid, decoded.Health.Score, decoded.Health.Note)
}
