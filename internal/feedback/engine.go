package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kyotake/machivoice/internal/llm"
	"github.com/kyotake/machivoice/internal/metrics"
)

// ErrEmptyConversation is returned when a turn arrives without any
// messages. The model gateway is never contacted in that case.
var ErrEmptyConversation = errors.New("conversation is empty")

const (
	defaultTurnTimeout = 60 * time.Second
	maxAnswerTokens    = 1024
)

// TurnResult is the outcome of one successful dialogue turn. Form is the
// merged record the caller must send back on the next turn; FormComplete is
// recomputed from the merged form, never taken from the gateway.
type TurnResult struct {
	Answer       string
	Form         Form
	FormComplete bool
}

// Engine is the dialogue orchestrator. It is stateless across turns: every
// invocation is fully determined by the caller-supplied history and prior
// form, so concurrent use needs no locking.
type Engine struct {
	provider  llm.Provider
	model     string
	policy    string
	committer *Committer
	log       zerolog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
}

// NewEngine creates a dialogue orchestrator. An empty policy selects the
// built-in extraction policy.
func NewEngine(provider llm.Provider, model, policy string, committer *Committer, logger zerolog.Logger, m *metrics.Metrics) *Engine {
	if policy == "" {
		policy = defaultPolicy
	}
	return &Engine{
		provider:  provider,
		model:     model,
		policy:    policy,
		committer: committer,
		log:       logger.With().Str("component", "engine").Logger(),
		metrics:   m,
		timeout:   defaultTurnTimeout,
	}
}

// Invoke runs one dialogue turn: it augments the caller's history with the
// extraction policy and the prior form, calls the model gateway under the
// structured output contract, merges the returned patch, and files the
// record when the merged form is complete.
//
// A non-conforming gateway reply is recovered locally: the prior form is
// returned unchanged with the raw reply text as the answer. Only gateway
// failures and an empty history produce an error, and neither mutates the
// caller's form state, so a retry with the same inputs is always safe.
func (e *Engine) Invoke(ctx context.Context, contact string, history []Message, prior Form) (*TurnResult, error) {
	if len(history) == 0 {
		e.metrics.TurnsTotal.WithLabelValues("empty_conversation").Inc()
		return nil, ErrEmptyConversation
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages,
		llm.Message{Role: llm.RoleSystem, Content: e.policy},
		llm.Message{Role: llm.RoleSystem, Content: renderFormContext(prior)},
	)
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: llm.Role(msg.Role), Content: msg.Content})
	}

	start := time.Now()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    messages,
		MaxTokens:   maxAnswerTokens,
		Temperature: 0.7,
		Schema:      ExtractionSchema(),
	})
	e.metrics.ModelRequestDuration.WithLabelValues(e.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.TurnsTotal.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("model gateway: %w", err)
	}

	answer := resp.Content
	form := prior

	res, decErr := decodeExtraction(resp.Content)
	if decErr != nil {
		// Contract violation: keep the prior form, surface the raw text.
		e.metrics.ContractViolationsTotal.Inc()
		e.metrics.TurnsTotal.WithLabelValues("contract_violation").Inc()
		e.log.Warn().Err(decErr).Msg("gateway reply violated the extraction contract, keeping prior form")
	} else {
		answer = res.Answer
		form = prior.Merge(res.Form)
		e.metrics.TurnsTotal.WithLabelValues("ok").Inc()
	}

	complete := form.IsComplete()
	if res != nil && res.FormComplete != complete {
		e.log.Debug().
			Bool("gateway_claim", res.FormComplete).
			Bool("computed", complete).
			Msg("gateway completion claim disagrees with merged form")
	}

	if complete {
		e.metrics.CompletionsTotal.Inc()
		if _, err := e.committer.Commit(ctx, contact, form); err != nil {
			// The record was not filed, but the conversation goes on: the
			// commit pipeline has already logged and counted the failure.
			e.log.Warn().Err(err).Msg("commit pipeline failed on a complete form")
		}
	}

	return &TurnResult{
		Answer:       answer,
		Form:         form,
		FormComplete: complete,
	}, nil
}
