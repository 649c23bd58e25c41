package embedding

import "context"

// BatchModel exposes a provider client through the batch-only shape the RAG
// pipeline consumes.
type BatchModel struct {
	model Embedding
}

// NewBatchModel wraps an embedding client.
func NewBatchModel(model Embedding) *BatchModel {
	return &BatchModel{model: model}
}

// Embed generates embedding vectors for the texts, preserving input order.
func (b *BatchModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return b.model.EmbedBatch(ctx, texts)
}
