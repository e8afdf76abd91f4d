package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// CacheConfig partitions the completion gateway's semantic cache. The
// shard key is an opaque directive: the provider forwards it verbatim
// and never interprets it.
type CacheConfig struct {
	MaxAgeSeconds int
	ShardKey      string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	JSONMode    bool
	Cache       *CacheConfig
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		o.MaxTokens = maxTokens
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithJSONMode() Option {
	return func(o *Options) {
		o.JSONMode = true
	}
}

func WithCache(maxAgeSeconds int, shardKey string) Option {
	return func(o *Options) {
		o.Cache = &CacheConfig{MaxAgeSeconds: maxAgeSeconds, ShardKey: shardKey}
	}
}

// ApplyOptions folds a list of options over provider defaults.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and streams the response. The text
	// channel closes when the response is complete; the error channel
	// delivers at most one error.
	ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan string, <-chan error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
