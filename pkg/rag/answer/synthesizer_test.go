package answer

import (
	"context"
	"fmt"
	"testing"

	"doc-chat-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	fragments   []llm.Fragment
	lastHistory []llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	p.lastHistory = history
	var text string
	for _, fr := range p.fragments {
		text += fr.Content
	}
	return text, nil
}

func (p *scriptedProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.Fragment, error) {
	p.lastHistory = history
	out := make(chan llm.Fragment, len(p.fragments))
	for _, fr := range p.fragments {
		out <- fr
	}
	close(out)
	return out, nil
}

func newTestSynthesizer(p llm.LLMProvider) *Synthesizer {
	router := llm.NewRouter(func(provider, model string) (llm.LLMProvider, error) {
		return p, nil
	})
	return NewSynthesizer(router, 6)
}

func testSources(n int) []Source {
	sources := make([]Source, n)
	for i := range sources {
		sources[i] = Source{
			Marker:        fmt.Sprintf("S%d", i+1),
			ChunkID:       uuid.New(),
			DocumentID:    uuid.New(),
			SequenceIndex: i,
			Text:          fmt.Sprintf("passage %d", i+1),
		}
	}
	return sources
}

func sel() llm.Selection {
	return llm.Selection{Provider: "ollama", Model: "llama3"}
}

func TestSynthesizeKeepsOnlyReferencedCitations(t *testing.T) {
	p := &scriptedProvider{fragments: []llm.Fragment{
		{Content: "Refunds take 30 days [S1]."},
		{Content: " Credit applies later [S3] [S1]."},
	}}
	sources := testSources(3)

	var streamed string
	got, err := newTestSynthesizer(p).Synthesize(context.Background(), sel(), "refunds?", nil, sources, func(f string) error {
		streamed += f
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, got.Text, streamed, "sink saw exactly the final text")
	require.Len(t, got.Citations, 2, "S2 was offered but never referenced")
	assert.Equal(t, "S1", got.Citations[0].Marker)
	assert.Equal(t, sources[0].ChunkID, got.Citations[0].ChunkID)
	assert.Equal(t, "S3", got.Citations[1].Marker)
}

func TestSynthesizeZeroSourcesUsesNoContextPromptAndNoCitations(t *testing.T) {
	p := &scriptedProvider{fragments: []llm.Fragment{{Content: "I could not find documents. [S1]"}}}

	got, err := newTestSynthesizer(p).Synthesize(context.Background(), sel(), "anything?", nil, nil, func(string) error { return nil })
	require.NoError(t, err)

	assert.Empty(t, got.Citations, "markers in text without offered sources cite nothing")
	require.NotEmpty(t, p.lastHistory)
	assert.Contains(t, p.lastHistory[len(p.lastHistory)-1].Content, "No supporting documents were found")
}

func TestSynthesizeMidStreamFailureReturnsPartialText(t *testing.T) {
	p := &scriptedProvider{fragments: []llm.Fragment{
		{Content: "part one "},
		{Content: "part two "},
		{Content: "part three"},
		{Err: fmt.Errorf("backend dropped")},
	}}

	var streamed string
	got, err := newTestSynthesizer(p).Synthesize(context.Background(), sel(), "q", nil, testSources(1), func(f string) error {
		streamed += f
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, "part one part two part three", got.Text)
	assert.Equal(t, got.Text, streamed)
}

func TestSynthesizeBoundsHistory(t *testing.T) {
	p := &scriptedProvider{fragments: []llm.Fragment{{Content: "ok"}}}

	history := make([]llm.Message, 0, 20)
	for i := 0; i < 10; i++ {
		history = append(history,
			llm.Message{Role: "user", Content: fmt.Sprintf("q%d", i)},
			llm.Message{Role: "assistant", Content: fmt.Sprintf("a%d", i)},
		)
	}

	_, err := newTestSynthesizer(p).Synthesize(context.Background(), sel(), "latest", history, nil, func(string) error { return nil })
	require.NoError(t, err)

	// 6-turn window plus the prompt message itself.
	assert.Len(t, p.lastHistory, 13)
	assert.Equal(t, "q4", p.lastHistory[0].Content)
}
