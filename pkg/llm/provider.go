package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Fragment is one piece of a streamed response. A non-nil Err means the
// stream failed mid-flight; no further fragments follow and the partial
// output must be discarded by the caller, not silently completed.
type Fragment struct {
	Content string
	Err     error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func BuildOptions(opts []Option) *Options {
	options := &Options{
		Temperature: 0.2,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// LLMProvider defines the contract for any LLM backend.
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// StreamChat opens a streaming generation. An error return means the
	// connection could not be established (retryable by the router). The
	// returned channel is a finite, non-restartable fragment sequence; it is
	// closed when generation completes or after one Err fragment. Cancelling
	// ctx stops consumption and releases the connection.
	StreamChat(ctx context.Context, history []Message, options ...Option) (<-chan Fragment, error)
}
