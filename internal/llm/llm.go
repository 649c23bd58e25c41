package llm

import (
	"context"
	"fmt"
)

// LLM is the interface every generative-model client implements. Generation
// is synchronous; streaming is left to the transport of the provider client.
type LLM interface {
	// Generate produces a text completion for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient creates an LLM client for the given provider.
// Supported providers are "openai", "gemini" and "ollama".
func NewClient(provider, model, apiKey, baseURL string) (LLM, error) {
	switch provider {
	case "openai":
		return NewOpenAI(model, apiKey)
	case "gemini":
		return NewGemini(context.Background(), model, apiKey)
	case "ollama":
		return NewOllama(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
