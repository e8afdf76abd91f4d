package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chartnotes-be/internal/pkg/logger"
	"chartnotes-be/pkg/llm"
	"chartnotes-be/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter approximates tokens as whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type capturingLLM struct {
	lastOptions llm.Options
	reply       string
	fail        bool
}

func (c *capturingLLM) Chat(_ context.Context, _ []llm.Message, opts ...llm.Option) (string, error) {
	c.lastOptions = *llm.ApplyOptions(opts...)
	if c.fail {
		return "", errors.New("upstream down")
	}
	return c.reply, nil
}

func (c *capturingLLM) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan string, <-chan error) {
	textCh := make(chan string, 1)
	errCh := make(chan error, 1)
	out, err := c.Chat(ctx, history, opts...)
	if err != nil {
		errCh <- err
	} else {
		textCh <- out
	}
	close(textCh)
	close(errCh)
	return textCh, errCh
}

func (c *capturingLLM) Generate(ctx context.Context, promptText string, opts ...llm.Option) (string, error) {
	return c.Chat(ctx, []llm.Message{{Role: "user", Content: promptText}}, opts...)
}

type recordingAlerts struct {
	sent int
}

func (r *recordingAlerts) SendBudgetAlert(string, int, int, int) error {
	r.sent++
	return nil
}

func TestCompleteBudgetsMaxTokens(t *testing.T) {
	provider := &capturingLLM{reply: "ok"}
	alerts := &recordingAlerts{}
	s := NewSynthesizer(provider, wordCounter{}, alerts, logger.NewNopLogger(), 1000)

	got, err := s.Complete(context.Background(), "answer_query", "one two three", "four five")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	// 1000 ceiling minus 5 prompt words.
	assert.Equal(t, 995, provider.lastOptions.MaxTokens)
	assert.Zero(t, alerts.sent)
}

func TestCompleteUnderFloorAlertsAndFails(t *testing.T) {
	provider := &capturingLLM{reply: "never"}
	alerts := &recordingAlerts{}
	s := NewSynthesizer(provider, wordCounter{}, alerts, logger.NewNopLogger(), 514)

	_, err := s.Complete(context.Background(), "answer_query",
		"this system prompt", "eats the whole budget")
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Equal(t, 1, alerts.sent)
}

func TestFitsBudgetNeverAlerts(t *testing.T) {
	alerts := &recordingAlerts{}
	s := NewSynthesizer(&capturingLLM{}, wordCounter{}, alerts, logger.NewNopLogger(), 514)

	assert.False(t, s.FitsBudget("too many", "prompt words here"))
	assert.True(t, s.FitsBudget("short", "prompt"))
	assert.Zero(t, alerts.sent)
}

func TestCompleteStreamUnderFloorFails(t *testing.T) {
	s := NewSynthesizer(&capturingLLM{}, wordCounter{}, &recordingAlerts{}, logger.NewNopLogger(), 513)

	textCh, errCh := s.CompleteStream(context.Background(), "answer_query", "a b", "c d")
	_, open := <-textCh
	assert.False(t, open)
	assert.ErrorIs(t, <-errCh, ErrBudgetExceeded)
}

func TestShardKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, "therapist-9-greeting-2026-08-31", ShardKey("therapist-9", "greeting", "2026-08-31"))
	assert.Equal(t,
		ShardKey("t1", "briefing", "2026-08-31"),
		ShardKey("t1", "briefing", "2026-08-31"))
}

func newTestMapReducer(provider llm.LLMProvider) *MapReducer {
	s := NewSynthesizer(provider, wordCounter{}, &recordingAlerts{}, logger.NewNopLogger(), DefaultMaxOutputTokens)
	splitter := utils.NewTextSplitter(12, 2, wordCounter{}.Count)
	return NewMapReducer(s, splitter, logger.NewNopLogger())
}

func TestMapReduceSummarizeProducesGrandSummary(t *testing.T) {
	provider := &capturingLLM{reply: "condensed recap of the material"}
	m := newTestMapReducer(provider)

	long := strings.Repeat("the patient talked about recurring stress at work and at home ", 8)
	got, err := m.Summarize(context.Background(), long, "en")
	require.NoError(t, err)
	assert.Equal(t, "condensed recap of the material", got)
}

func TestMapReduceSummarizePropagatesChunkFailure(t *testing.T) {
	provider := &capturingLLM{fail: true}
	m := newTestMapReducer(provider)

	_, err := m.Summarize(context.Background(), "a short transcript about sleep", "en")
	assert.Error(t, err)
}

func TestMapReduceSummarizeRejectsEmptyOutput(t *testing.T) {
	provider := &capturingLLM{reply: "   "}
	m := newTestMapReducer(provider)

	_, err := m.Summarize(context.Background(), "a short transcript about sleep", "en")
	assert.Error(t, err)
}
