package feedback

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kyotake/machivoice/internal/llm"
)

// extractionSchemaJSON is the wire contract between the engine and the
// model gateway. It is passed as the response schema on every turn: a
// conforming reply carries the assistant's answer, this turn's field patch
// (each field nullable) and the model's own completion claim.
const extractionSchemaJSON = `{
  "type": "object",
  "properties": {
    "answer": {
      "type": "string",
      "description": "The assistant's conversational reply to the user"
    },
    "form": {
      "type": "object",
      "properties": {
        "title": {"type": ["string", "null"], "description": "Short title of the feedback"},
        "category": {"type": ["string", "null"], "enum": ["request", "question", "praise", null]},
        "description": {"type": ["string", "null"], "description": "Full description of the feedback"},
        "place": {"type": ["string", "null"], "description": "The place the feedback is about"}
      },
      "required": ["title", "category", "description", "place"],
      "additionalProperties": false
    },
    "form_complete": {"type": "boolean"}
  },
  "required": ["answer", "form", "form_complete"],
  "additionalProperties": false
}`

// ExtractionSchema returns the structured output contract as a gateway
// response schema.
func ExtractionSchema() *llm.ResponseSchema {
	return &llm.ResponseSchema{
		Name:   "feedback_extraction",
		Schema: json.RawMessage(extractionSchemaJSON),
		Strict: true,
	}
}

// ExtractionResult is the decoded structured reply from the model gateway.
// FormComplete is the gateway's own claim and is advisory only; the engine
// recomputes completion from the merged form.
type ExtractionResult struct {
	Answer       string `json:"answer"`
	Form         Patch  `json:"form"`
	FormComplete bool   `json:"form_complete"`
}

// ErrContractViolation marks a gateway reply that does not conform to the
// structured output contract. The engine recovers from it locally.
var ErrContractViolation = errors.New("reply does not conform to the extraction contract")

// decodeExtraction decodes and validates a gateway reply against the
// contract in a single step. A gateway occasionally returns the patch as a
// JSON-encoded string instead of an object; that string is decoded as the
// patch shape before the reply is declared a violation.
func decodeExtraction(content string) (*ExtractionResult, error) {
	var raw struct {
		Answer       *string         `json:"answer"`
		Form         json.RawMessage `json:"form"`
		FormComplete *bool           `json:"form_complete"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	if raw.Answer == nil {
		return nil, fmt.Errorf("%w: missing answer", ErrContractViolation)
	}
	if raw.FormComplete == nil {
		return nil, fmt.Errorf("%w: missing form_complete", ErrContractViolation)
	}

	patch, err := decodePatch(raw.Form)
	if err != nil {
		return nil, err
	}
	if patch.Category != "" && !ValidCategory(patch.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrContractViolation, patch.Category)
	}

	return &ExtractionResult{
		Answer:       *raw.Answer,
		Form:         *patch,
		FormComplete: *raw.FormComplete,
	}, nil
}

func decodePatch(raw json.RawMessage) (*Patch, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing form", ErrContractViolation)
	}

	var patch Patch
	if err := json.Unmarshal(raw, &patch); err == nil {
		return &patch, nil
	}

	// The patch may arrive double-encoded as a JSON string.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("%w: form is neither object nor string", ErrContractViolation)
	}
	if err := json.Unmarshal([]byte(encoded), &patch); err != nil {
		return nil, fmt.Errorf("%w: string-encoded form: %v", ErrContractViolation, err)
	}
	return &patch, nil
}
