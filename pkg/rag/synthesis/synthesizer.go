package synthesis

import (
	"context"
	"errors"
	"fmt"

	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/tokenizer"
)

// ErrBudgetExceeded means the prompt left less than the minimum output
// budget. It is fatal for the request; callers must not retry with the
// same prompt.
var ErrBudgetExceeded = errors.New("prompt too long: insufficient output token budget")

const (
	// DefaultMaxOutputTokens is the completion model's output ceiling.
	DefaultMaxOutputTokens = 16384

	// MinimumTokenBudget is the floor under which a completion is refused.
	MinimumTokenBudget = 512

	// CacheTTLSeconds is how long the completion gateway may serve a
	// cached answer for one shard key (24 hours, matching the calendar
	// day baked into the key).
	CacheTTLSeconds = 86400
)

// AlertSender notifies engineering when a prompt cannot fit its response.
type AlertSender interface {
	SendBudgetAlert(incomingMethod string, promptTokens, maxTokens, totalLimit int) error
}

type ISynthesizer interface {
	Complete(ctx context.Context, incomingMethod, systemPrompt, userPrompt string, opts ...llm.Option) (string, error)
	CompleteStream(ctx context.Context, incomingMethod, systemPrompt, userPrompt string, opts ...llm.Option) (<-chan string, <-chan error)
	FitsBudget(systemPrompt, userPrompt string) bool
}

// Synthesizer wraps an LLM provider with per-request output budgeting:
// every completion gets max_tokens = ceiling - tokens(system + "\n" + user).
type Synthesizer struct {
	llm             llm.LLMProvider
	counter         tokenizer.Counter
	alerts          AlertSender
	logger          logger.ILogger
	maxOutputTokens int
}

var _ ISynthesizer = &Synthesizer{}

func NewSynthesizer(
	llmProvider llm.LLMProvider,
	counter tokenizer.Counter,
	alerts AlertSender,
	log logger.ILogger,
	maxOutputTokens int,
) *Synthesizer {
	if maxOutputTokens <= 0 {
		maxOutputTokens = DefaultMaxOutputTokens
	}
	return &Synthesizer{
		llm:             llmProvider,
		counter:         counter,
		alerts:          alerts,
		logger:          log,
		maxOutputTokens: maxOutputTokens,
	}
}

// ShardKey builds the deterministic semantic-cache partition key. Equal
// inputs on the same calendar day always produce the same key.
func ShardKey(scope, action, day string) string {
	return fmt.Sprintf("%s-%s-%s", scope, action, day)
}

func (s *Synthesizer) promptTokens(systemPrompt, userPrompt string) int {
	return s.counter.Count(systemPrompt + "\n" + userPrompt)
}

// FitsBudget reports whether a prompt leaves at least the minimum output
// budget. It never alerts; use it to pick a fallback path before
// committing to a completion.
func (s *Synthesizer) FitsBudget(systemPrompt, userPrompt string) bool {
	return s.maxOutputTokens-s.promptTokens(systemPrompt, userPrompt) >= MinimumTokenBudget
}

func (s *Synthesizer) budget(incomingMethod, systemPrompt, userPrompt string) (int, error) {
	promptTokens := s.promptTokens(systemPrompt, userPrompt)
	maxTokens := s.maxOutputTokens - promptTokens
	if maxTokens >= MinimumTokenBudget {
		return maxTokens, nil
	}

	s.logger.Error("synthesis", "Prompt too long for response budget", map[string]interface{}{
		"incoming_method": incomingMethod,
		"prompt_tokens":   promptTokens,
		"max_tokens":      maxTokens,
		"total_limit":     s.maxOutputTokens,
	})
	if err := s.alerts.SendBudgetAlert(incomingMethod, promptTokens, maxTokens, s.maxOutputTokens); err != nil {
		s.logger.Warn("synthesis", "Failed to send budget alert", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return 0, ErrBudgetExceeded
}

// Complete runs a budgeted chat completion.
func (s *Synthesizer) Complete(ctx context.Context, incomingMethod, systemPrompt, userPrompt string, opts ...llm.Option) (string, error) {
	maxTokens, err := s.budget(incomingMethod, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}

	options := append([]llm.Option{llm.WithMaxTokens(maxTokens)}, opts...)
	return s.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, options...)
}

// CompleteStream runs a budgeted streaming chat completion.
func (s *Synthesizer) CompleteStream(ctx context.Context, incomingMethod, systemPrompt, userPrompt string, opts ...llm.Option) (<-chan string, <-chan error) {
	maxTokens, err := s.budget(incomingMethod, systemPrompt, userPrompt)
	if err != nil {
		textCh := make(chan string)
		errCh := make(chan error, 1)
		close(textCh)
		errCh <- err
		close(errCh)
		return textCh, errCh
	}

	options := append([]llm.Option{llm.WithMaxTokens(maxTokens)}, opts...)
	return s.llm.ChatStream(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, options...)
}
