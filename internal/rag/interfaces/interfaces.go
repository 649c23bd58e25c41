package interfaces

import (
	"context"

	"empchat/internal/rag/schema"
)

// Loader is the interface for loading data from a source file and converting
// it into a list of Document objects.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter is the interface for splitting a list of Documents into smaller chunks.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error)
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a large language model that can generate text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VectorStore is the interface for storing and querying document vectors.
// All scores returned by QueryWithScores follow the higher-is-more-similar
// convention regardless of the backing index's native metric.
type VectorStore interface {
	// Add writes the documents, including their embeddings, into the index.
	// Repeated Add of the same content creates duplicate entries; the store
	// performs no content-based deduplication.
	Add(ctx context.Context, docs []*schema.Document) error

	// Query returns the topK most similar documents to the embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error)

	// QueryMMR returns a diversity-aware topK selection: fetchK candidates
	// are retrieved and re-selected by maximal marginal relevance with the
	// given relevance/diversity trade-off lambda.
	QueryMMR(ctx context.Context, embedding []float32, topK, fetchK int, lambda float64) ([]*schema.Document, error)

	// QueryWithScores returns the topK most similar documents together with
	// their similarity scores.
	QueryWithScores(ctx context.Context, embedding []float32, topK int) ([]*schema.ScoredDocument, error)
}

// Reranker is the interface for re-ordering retrieved documents. The recency
// implementation is a pure function of its inputs and today's date.
type Reranker interface {
	Rerank(scored []*schema.ScoredDocument, recencyWeight float64) []*schema.ScoredDocument
}
