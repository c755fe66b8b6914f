package llm

import (
	"context"
	"fmt"
	"time"

	"doc-chat-be/pkg/apperrors"
)

// Selection names the backend and model a project is configured with.
type Selection struct {
	Provider string
	Model    string
}

// Factory builds a provider for a selection. Configuration errors (unknown
// provider, missing key) come back immediately and are not retried.
type Factory func(provider, model string) (LLMProvider, error)

// Router invokes the selected backend under the uniform streaming contract.
// It retries the initial connection a small fixed number of times with
// backoff; once fragments are flowing, a mid-stream failure is surfaced
// as-is and never retried. There is no fallback between providers; an
// unavailable backend is a terminal failure for the request.
type Router struct {
	factory    Factory
	maxRetries int
	backoff    time.Duration
}

func NewRouter(factory Factory) *Router {
	return &Router{
		factory:    factory,
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}
}

func (r *Router) Stream(ctx context.Context, sel Selection, history []Message, opts ...Option) (<-chan Fragment, error) {
	provider, err := r.factory(sel.Provider, sel.Model)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		fragments, err := provider.StreamChat(ctx, history, opts...)
		if err == nil {
			return fragments, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s/%s after %d attempts: %v",
		apperrors.ErrProviderUnavailable, sel.Provider, sel.Model, r.maxRetries+1, lastErr)
}

// Generate is the non-streaming convenience path, with the same connection
// retry policy.
func (r *Router) Generate(ctx context.Context, sel Selection, history []Message, opts ...Option) (string, error) {
	provider, err := r.factory(sel.Provider, sel.Model)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		reply, err := provider.Chat(ctx, history, opts...)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w: %s/%s after %d attempts: %v",
		apperrors.ErrProviderUnavailable, sel.Provider, sel.Model, r.maxRetries+1, lastErr)
}
