package groq

import (
	"context"
	"errors"
	"fmt"
	"io"

	"doc-chat-be/pkg/llm"

	openai "github.com/sashabaranov/go-openai"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider talks to Groq's OpenAI-compatible chat completions API.
type GroqProvider struct {
	client    *openai.Client
	ModelName string
}

var _ llm.LLMProvider = &GroqProvider{}

func NewGroqProvider(apiKey, baseURL, modelName string) *GroqProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cfg.BaseURL = baseURL
	return &GroqProvider{
		client:    openai.NewClientWithConfig(cfg),
		ModelName: modelName,
	}
}

func (g *GroqProvider) buildRequest(history []llm.Message, options *llm.Options, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := g.ModelName
	if options.Model != "" {
		model = options.Model
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
		MaxTokens:   options.MaxTokens,
		Stream:      stream,
	}
}

func (g *GroqProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.BuildOptions(opts)

	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(history, options, false))
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *GroqProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.Fragment, error) {
	options := llm.BuildOptions(opts)

	stream, err := g.client.CreateChatCompletionStream(ctx, g.buildRequest(history, options, true))
	if err != nil {
		return nil, fmt.Errorf("groq stream failed: %w", err)
	}

	fragments := make(chan llm.Fragment)
	go func() {
		defer close(fragments)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case fragments <- llm.Fragment{Err: fmt.Errorf("stream interrupted: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case fragments <- llm.Fragment{Content: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return fragments, nil
}
