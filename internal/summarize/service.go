// Package summarize condenses collections of free-form notes into a short
// good-points / bad-points summary via a one-shot model call.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kyotake/machivoice/internal/llm"
)

// ErrNoNotes is returned when there is nothing to summarize.
var ErrNoNotes = errors.New("no notes to summarize")

// Summary is the condensed view of a set of notes.
type Summary struct {
	GoodPoint string `json:"good_point"`
	BadPoint  string `json:"bad_point"`
}

const summarySchemaJSON = `{
  "type": "object",
  "properties": {
    "summary": {
      "type": "object",
      "properties": {
        "good_point": {"type": "string", "description": "Summary of the good points"},
        "bad_point": {"type": "string", "description": "Summary of the bad points"}
      },
      "required": ["good_point", "bad_point"],
      "additionalProperties": false
    }
  },
  "required": ["summary"],
  "additionalProperties": false
}`

const summaryPrompt = `You are skilled at distilling the essence of a text.
From the list of notes below, summarize the good points and the bad points, and fold any trends you notice into each. Write in a polite, complete style, around 200 words for each.

--- notes ---
%s
-------------`

// Service produces note summaries.
type Service struct {
	provider llm.Provider
	model    string
}

// NewService creates a summarize service.
func NewService(provider llm.Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Summarize condenses the given notes into a Summary.
func (s *Service) Summarize(ctx context.Context, notes []string) (*Summary, error) {
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}

	var list strings.Builder
	for _, note := range notes {
		fmt.Fprintf(&list, "- %s\n", note)
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(summaryPrompt, list.String())}},
		MaxTokens:   1024,
		Temperature: 0.3,
		Schema: &llm.ResponseSchema{
			Name:   "note_summary",
			Schema: json.RawMessage(summarySchemaJSON),
			Strict: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("model gateway: %w", err)
	}

	var decoded struct {
		Summary *Summary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resp.Content), &decoded); err != nil || decoded.Summary == nil {
		return nil, fmt.Errorf("unexpected reply shape from model: %q", resp.Content)
	}
	return decoded.Summary, nil
}
