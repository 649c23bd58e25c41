package vectorstore

import (
	"context"
	"sort"
	"sync"

	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"
)

// MemoryStore is a brute-force cosine-similarity vector store kept entirely
// in memory. It backs local runs and tests; the on-disk corpus still lives
// in the archive directory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []*schema.Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends the documents to the store. No deduplication is performed:
// adding the same documents twice stores them twice.
func (s *MemoryStore) Add(ctx context.Context, docs []*schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
	return nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Query returns the topK most similar documents to the embedding.
func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	scored, err := s.QueryWithScores(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}
	docs := make([]*schema.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}
	return docs, nil
}

// QueryWithScores returns the topK most similar documents with their cosine
// similarity scores, higher is more similar.
func (s *MemoryStore) QueryWithScores(ctx context.Context, embedding []float32, topK int) ([]*schema.ScoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]*schema.ScoredDocument, 0, len(s.docs))
	for _, doc := range s.docs {
		scored = append(scored, &schema.ScoredDocument{
			Document: doc,
			Score:    cosineSimilarity(embedding, doc.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

// QueryMMR returns a diversity-aware topK selection from the fetchK most
// similar candidates.
func (s *MemoryStore) QueryMMR(ctx context.Context, embedding []float32, topK, fetchK int, lambda float64) ([]*schema.Document, error) {
	candidates, err := s.QueryWithScores(ctx, embedding, fetchK)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(candidates))
	for i, sd := range candidates {
		vectors[i] = sd.Document.Embedding
	}

	var docs []*schema.Document
	for _, idx := range mmrSelect(embedding, vectors, topK, lambda) {
		docs = append(docs, candidates[idx].Document)
	}
	return docs, nil
}

// compile-time check to ensure MemoryStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MemoryStore)(nil)
