package llm

import "encoding/json"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// ResponseSchema is a JSON schema the provider must constrain its output to.
// Schema holds the raw schema document; Strict requests schema-enforced
// decoding on providers that support it.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
	Strict bool
}

// CompletionRequest contains the parameters for an LLM completion request.
// Schema takes precedence over JSONMode when both are set.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
	Schema      *ResponseSchema
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
