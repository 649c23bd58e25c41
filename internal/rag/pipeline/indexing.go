package pipeline

import (
	"context"
	"errors"
	"fmt"

	"empchat/internal/rag/ingest"
	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"
	"empchat/pkg/logger"
)

var (
	// ErrTextExtraction reports a PDF parse or split failure. Nothing has
	// been written to the index when it occurs.
	ErrTextExtraction = errors.New("text extraction failed")

	// ErrIndexWrite reports an embedding or index upsert failure. Extracted
	// chunks are discarded, not retried; no files have been archived yet.
	ErrIndexWrite = errors.New("index write failed")
)

// IndexingPipeline turns staged PDFs into indexed, embedded chunks and then
// archives the processed files. Each step is independently caught: a failure
// aborts the remaining steps of the batch and reports which step failed.
// There is no rollback of steps that already completed.
type IndexingPipeline struct {
	ingestor    *ingest.Ingestor
	loader      interfaces.Loader
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	log         logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	ingestor *ingest.Ingestor,
	loader interfaces.Loader,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	log logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		ingestor:    ingestor,
		loader:      loader,
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Stage resets the staging area with the uploaded files and assigns their
// canonical "{seq}-{date}.pdf" names. It returns the canonical names in
// processing order.
func (p *IndexingPipeline) Stage(files []ingest.UploadedFile) ([]string, error) {
	if err := p.ingestor.StageUploads(files); err != nil {
		p.log.Error(fmt.Sprintf("Failed to stage uploads: %v", err))
		return nil, err
	}

	names, err := p.ingestor.AssignCanonicalNames()
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to assign canonical names: %v", err))
		return nil, fmt.Errorf("%w: %v", ingest.ErrStagingWrite, err)
	}

	p.log.Info(fmt.Sprintf("Staged and renamed %d PDFs", len(names)))
	return names, nil
}

// Index runs the three downstream steps over the staged batch: extract and
// split chunks, embed and write them to the vector index, then move the
// processed files to the archive.
func (p *IndexingPipeline) Index(ctx context.Context) error {
	// Step 1: load and split.
	chunks, err := p.extractChunks(ctx)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to convert PDFs to chunks: %v", err))
		return err
	}
	p.log.Info(fmt.Sprintf("Split staged PDFs into %d chunks", len(chunks)))

	// Step 2: embed and upsert.
	if err := p.indexChunks(ctx, chunks); err != nil {
		p.log.Error(fmt.Sprintf("Failed to add chunks to the vector index: %v", err))
		return err
	}
	p.log.Info("Successfully added all chunks to the vector index")

	// Step 3: archive the processed files.
	if err := p.ingestor.Archive(); err != nil {
		p.log.Error(fmt.Sprintf("Failed to archive processed PDFs: %v", err))
		return err
	}
	p.log.Info("Indexing batch completed")

	return nil
}

// extractChunks loads every staged PDF and splits the pages into overlapping
// chunks, materialized as a single slice.
func (p *IndexingPipeline) extractChunks(ctx context.Context) ([]*schema.Document, error) {
	paths, err := p.ingestor.StagedPDFs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTextExtraction, err)
	}

	var pages []*schema.Document
	for _, path := range paths {
		docs, err := p.loader.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTextExtraction, path, err)
		}
		pages = append(pages, docs...)
	}

	chunks, err := p.splitter.Split(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTextExtraction, err)
	}
	return chunks, nil
}

// indexChunks embeds the chunk texts and writes them to the vector store.
func (p *IndexingPipeline) indexChunks(ctx context.Context, chunks []*schema.Document) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embedding: %v", ErrIndexWrite, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", ErrIndexWrite, len(embeddings), len(chunks))
	}
	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
	}

	if err := p.vectorStore.Add(ctx, chunks); err != nil {
		return fmt.Errorf("%w: upsert: %v", ErrIndexWrite, err)
	}
	return nil
}
