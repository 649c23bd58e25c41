package splitters

import (
	"context"
	"fmt"

	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"

	"github.com/google/uuid"
)

// CharSplitter implements the Splitter interface by cutting document text
// into fixed-size character windows with a fixed overlap between adjacent
// chunks of the same document. Sizes are measured in runes so multi-byte
// text never gets cut mid-character.
type CharSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewCharSplitter creates a new CharSplitter. ChunkOverlap must be smaller
// than ChunkSize.
func NewCharSplitter(chunkSize, chunkOverlap int) (*CharSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunkSize), got %d", chunkOverlap)
	}
	return &CharSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split splits each document into chunks of at most ChunkSize characters,
// where consecutive chunks of the same document share exactly ChunkOverlap
// characters at the boundary. Chunks are produced in document order.
func (s *CharSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	var chunks []*schema.Document

	for _, doc := range docs {
		runes := []rune(doc.Text)
		step := s.ChunkSize - s.ChunkOverlap

		for start := 0; start < len(runes); start += step {
			end := start + s.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}

			newDoc := &schema.Document{
				ID:       uuid.New().String(),
				Text:     string(runes[start:end]),
				Metadata: copyMetadata(doc.Metadata),
			}
			newDoc.Metadata["original_doc_id"] = doc.ID
			newDoc.Metadata["chunk_number"] = (start / step) + 1

			chunks = append(chunks, newDoc)

			if end == len(runes) {
				break
			}
		}
	}

	return chunks, nil
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	if md == nil {
		return make(map[string]interface{})
	}
	newMd := make(map[string]interface{}, len(md))
	for k, v := range md {
		newMd[k] = v
	}
	return newMd
}

// compile-time check to ensure CharSplitter implements the Splitter interface
var _ interfaces.Splitter = (*CharSplitter)(nil)
