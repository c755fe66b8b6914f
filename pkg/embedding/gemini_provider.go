package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doc-chat-be/pkg/apperrors"
)

// GeminiProvider implements Provider against the Google Generative Language
// embedContent API (text-embedding-004, 768 dimensions).
type GeminiProvider struct {
	ApiKey  string
	Model   string
	Dims    int
	BaseURL string
	Client  *http.Client
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:  apiKey,
		Model:   "text-embedding-004",
		Dims:    768,
		BaseURL: "https://generativelanguage.googleapis.com/v1",
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiContentPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiContentPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (p *GeminiProvider) Dimension() int { return p.Dims }

func (p *GeminiProvider) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	geminiReq := geminiEmbedRequest{
		Model: "models/" + p.Model,
		Content: geminiContent{
			Parts: []geminiContentPart{{Text: text}},
		},
		TaskType: taskType,
	}
	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", apperrors.ErrEmbedding, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, p.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", apperrors.ErrEmbedding, err)
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini request failed: %v", apperrors.ErrEmbedding, err)
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperrors.ErrEmbedding, err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gemini response code %d, body %s", apperrors.ErrEmbedding, res.StatusCode, string(resByte))
	}

	var resEmbedding geminiEmbedResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", apperrors.ErrEmbedding, err)
	}

	return NormalizeVector(resEmbedding.Embedding.Values), nil
}

func (p *GeminiProvider) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.EmbedOne(ctx, text, taskType)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
