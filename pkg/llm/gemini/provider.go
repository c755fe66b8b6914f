package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doc-chat-be/pkg/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider talks to the Google Generative Language API.
type GeminiProvider struct {
	ApiKey    string
	ModelName string
	BaseURL   string
	Client    *http.Client
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:    apiKey,
		ModelName: modelName,
		BaseURL:   defaultBaseURL,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

type geminiChatPart struct {
	Text string `json:"text"`
}

type geminiChatContent struct {
	Parts []geminiChatPart `json:"parts"`
	Role  string           `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiChatRequest struct {
	Contents         []geminiChatContent     `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiChatCandidate struct {
	Content geminiChatContent `json:"content"`
}

type geminiChatResponse struct {
	Candidates []geminiChatCandidate `json:"candidates"`
}

func (g *GeminiProvider) buildRequest(history []llm.Message, options *llm.Options) geminiChatRequest {
	contents := make([]geminiChatContent, 0, len(history))
	for _, msg := range history {
		// Gemini only knows "user" and "model" roles; system and assistant
		// turns fold into them.
		role := "user"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "model"
		}
		contents = append(contents, geminiChatContent{
			Parts: []geminiChatPart{{Text: msg.Content}},
			Role:  role,
		})
	}
	return geminiChatRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		},
	}
}

func (g *GeminiProvider) model(options *llm.Options) string {
	if options.Model != "" {
		return options.Model
	}
	return g.ModelName
}

func (g *GeminiProvider) post(ctx context.Context, endpoint string, payload geminiChatRequest) (*http.Response, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		resBody, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, fmt.Errorf("gemini error: status %d, body %s", res.StatusCode, string(resBody))
	}
	return res, nil
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.BuildOptions(opts)

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.model(options))
	res, err := g.post(ctx, endpoint, g.buildRequest(history, options))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var geminiRes geminiChatResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(geminiRes.Candidates) == 0 || len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

// StreamChat uses streamGenerateContent with SSE framing: "data: {json}"
// lines, each carrying one partial candidate.
func (g *GeminiProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.Fragment, error) {
	options := llm.BuildOptions(opts)

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", g.BaseURL, g.model(options))
	res, err := g.post(ctx, endpoint, g.buildRequest(history, options))
	if err != nil {
		return nil, err
	}

	fragments := make(chan llm.Fragment)
	go func() {
		defer close(fragments)
		defer res.Body.Close()

		scanner := bufio.NewScanner(res.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if !bytes.HasPrefix(line, []byte("data:")) {
				continue
			}
			data := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
			if len(data) == 0 || bytes.Equal(data, []byte("[DONE]")) {
				continue
			}

			var chunk geminiChatResponse
			if err := json.Unmarshal(data, &chunk); err != nil {
				select {
				case fragments <- llm.Fragment{Err: fmt.Errorf("decode stream chunk: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
				continue
			}
			text := chunk.Candidates[0].Content.Parts[0].Text
			if text == "" {
				continue
			}
			select {
			case fragments <- llm.Fragment{Content: text}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case fragments <- llm.Fragment{Err: fmt.Errorf("stream interrupted: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return fragments, nil
}
