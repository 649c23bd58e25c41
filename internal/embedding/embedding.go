package embedding

import (
	"context"
	"fmt"
)

// Embedding is the interface every embedding provider client implements.
type Embedding interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts,
	// preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewModel creates an embedding client for the given provider.
// Supported providers are "openai", "gemini" and "ollama".
func NewModel(provider, model, apiKey, baseURL string) (Embedding, error) {
	switch provider {
	case "openai":
		return NewOpenAIModel(apiKey, model)
	case "gemini":
		return NewGoogleModel(apiKey, model)
	case "ollama":
		return NewOllamaModel(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
