package embedding

import (
	"context"
	"fmt"
	"sort"

	"doc-chat-be/pkg/apperrors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider against any OpenAI-compatible embeddings
// API (OpenAI itself, or Groq via a custom base URL).
type OpenAIProvider struct {
	client *openai.Client
	model  string
	dims   int
}

func NewOpenAIProvider(apiKey, baseURL, model string, dims int) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

func (p *OpenAIProvider) Dimension() int { return p.dims }

func (p *OpenAIProvider) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := p.EmbedMany(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany sends the whole batch in one request. The API may reorder items;
// the response Index field restores input order.
func (p *OpenAIProvider) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create embeddings: %v", apperrors.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", apperrors.ErrEmbedding, len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = NormalizeVector(item.Embedding)
	}
	return vectors, nil
}
