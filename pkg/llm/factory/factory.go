package factory

import (
	"fmt"

	"doc-chat-be/pkg/apperrors"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/llm/gemini"
	"doc-chat-be/pkg/llm/groq"
	"doc-chat-be/pkg/llm/ollama"
)

// ProviderConfig carries backend credentials and endpoints. Which backend is
// used for a request is decided by the owning project's provider selection,
// never by fallback.
type ProviderConfig struct {
	OllamaBaseURL string
	GroqAPIKey    string
	GroqBaseURL   string
	GeminiAPIKey  string
}

func NewLLMProvider(providerType, modelName string, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(cfg.OllamaBaseURL, modelName), nil
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("%w: groq api key not configured", apperrors.ErrConfiguration)
		}
		return groq.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqBaseURL, modelName), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: gemini api key not configured", apperrors.ErrConfiguration)
		}
		return gemini.NewGeminiProvider(cfg.GeminiAPIKey, modelName), nil
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", apperrors.ErrConfiguration, providerType)
	}
}
