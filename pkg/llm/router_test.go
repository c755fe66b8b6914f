package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"doc-chat-be/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyProvider struct {
	failConnections int
	connectAttempts int
	fragments       []Fragment
}

func (f *flakyProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	f.connectAttempts++
	if f.connectAttempts <= f.failConnections {
		return "", fmt.Errorf("connection refused")
	}
	return "full reply", nil
}

func (f *flakyProvider) StreamChat(ctx context.Context, history []Message, opts ...Option) (<-chan Fragment, error) {
	f.connectAttempts++
	if f.connectAttempts <= f.failConnections {
		return nil, fmt.Errorf("connection refused")
	}
	out := make(chan Fragment, len(f.fragments))
	for _, fr := range f.fragments {
		out <- fr
	}
	close(out)
	return out, nil
}

func newTestRouter(p LLMProvider) *Router {
	r := NewRouter(func(provider, model string) (LLMProvider, error) {
		return p, nil
	})
	r.backoff = 0 // keep tests fast
	return r
}

func collect(t *testing.T, fragments <-chan Fragment) (string, error) {
	t.Helper()
	var text string
	for fr := range fragments {
		if fr.Err != nil {
			return text, fr.Err
		}
		text += fr.Content
	}
	return text, nil
}

func TestStreamRetriesInitialConnection(t *testing.T) {
	p := &flakyProvider{
		failConnections: 2,
		fragments:       []Fragment{{Content: "hello "}, {Content: "world"}},
	}

	fragments, err := newTestRouter(p).Stream(context.Background(), Selection{Provider: "ollama", Model: "llama3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, p.connectAttempts)

	text, err := collect(t, fragments)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestStreamGivesUpAfterRetryBudget(t *testing.T) {
	p := &flakyProvider{failConnections: 10}

	_, err := newTestRouter(p).Stream(context.Background(), Selection{Provider: "groq", Model: "llama-3.1-8b"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProviderUnavailable))
	assert.Equal(t, 3, p.connectAttempts, "1 attempt + 2 retries")
}

func TestStreamDoesNotRetryMidStreamFailure(t *testing.T) {
	p := &flakyProvider{
		fragments: []Fragment{
			{Content: "one "},
			{Content: "two "},
			{Content: "three"},
			{Err: fmt.Errorf("backend disconnected")},
		},
	}

	fragments, err := newTestRouter(p).Stream(context.Background(), Selection{Provider: "gemini", Model: "gemini-1.5-flash"}, nil)
	require.NoError(t, err)

	text, streamErr := collect(t, fragments)
	assert.Equal(t, "one two three", text, "fragments before the failure are delivered")
	require.Error(t, streamErr)
	assert.Equal(t, 1, p.connectAttempts, "mid-stream failure must not reconnect")
}

func TestStreamFactoryConfigurationErrorIsNotRetried(t *testing.T) {
	calls := 0
	r := NewRouter(func(provider, model string) (LLMProvider, error) {
		calls++
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", apperrors.ErrConfiguration, provider)
	})

	_, err := r.Stream(context.Background(), Selection{Provider: "nope", Model: "x"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	assert.Equal(t, 1, calls)
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	p := &flakyProvider{failConnections: 1}

	reply, err := newTestRouter(p).Generate(context.Background(), Selection{Provider: "ollama", Model: "llama3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "full reply", reply)
	assert.Equal(t, 2, p.connectAttempts)
}
