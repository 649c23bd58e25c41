package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"empchat/internal/rag/ingest"
	"empchat/internal/rag/splitters"
)

// staticDates answers PDF creation-date lookups from a fixed table keyed by
// base file name.
type staticDates map[string]string

func (d staticDates) CreationDate(path string) (string, error) {
	return d[filepath.Base(path)], nil
}

func newTestIngestor(t *testing.T, dates staticDates) *ingest.Ingestor {
	t.Helper()
	root := t.TempDir()
	return ingest.NewIngestor(
		filepath.Join(root, "uploaded_pdfs"),
		filepath.Join(root, "pdf_database"),
		dates,
		testLogger(),
	)
}

func newTestSplitter(t *testing.T) *splitters.CharSplitter {
	t.Helper()
	s, err := splitters.NewCharSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewCharSplitter: %v", err)
	}
	return s
}

func TestIndexingPipeline_StageAndIndex(t *testing.T) {
	ing := newTestIngestor(t, staticDates{"manual.pdf": "D:20230615120000Z"})
	store := newRecordingStore()
	embedder := &fakeEmbedder{}
	pipe := NewIndexingPipeline(ing, &fakeLoader{}, newTestSplitter(t), embedder, store, testLogger())

	names, err := pipe.Stage([]ingest.UploadedFile{{Name: "manual.pdf", Data: []byte("%PDF")}})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(names) != 1 || names[0] != "1-20230615.pdf" {
		t.Fatalf("expected canonical name 1-20230615.pdf, got %v", names)
	}

	if err := pipe.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}

	if store.Len() == 0 {
		t.Error("expected chunks in the vector store after indexing")
	}
	if embedder.calls != 1 {
		t.Errorf("expected a single batch embedding call, got %d", embedder.calls)
	}

	// The processed file moved to the archive and staging is empty.
	if _, err := os.Stat(filepath.Join(ing.ArchiveDir(), "1-20230615.pdf")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
	staged, err := ing.StagedPDFs()
	if err != nil {
		t.Fatalf("StagedPDFs: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("staging should be empty after archiving, found %v", staged)
	}
}

func TestIndexingPipeline_SequenceContinuesAcrossBatches(t *testing.T) {
	ing := newTestIngestor(t, staticDates{
		"a.pdf": "D:20230101000000Z",
		"b.pdf": "D:20240202000000Z",
	})
	store := newRecordingStore()
	pipe := NewIndexingPipeline(ing, &fakeLoader{}, newTestSplitter(t), &fakeEmbedder{}, store, testLogger())

	if _, err := pipe.Stage([]ingest.UploadedFile{{Name: "a.pdf", Data: []byte("%PDF")}}); err != nil {
		t.Fatalf("Stage batch 1: %v", err)
	}
	if err := pipe.Index(context.Background()); err != nil {
		t.Fatalf("Index batch 1: %v", err)
	}

	names, err := pipe.Stage([]ingest.UploadedFile{{Name: "b.pdf", Data: []byte("%PDF")}})
	if err != nil {
		t.Fatalf("Stage batch 2: %v", err)
	}
	if len(names) != 1 || names[0] != "2-20240202.pdf" {
		t.Errorf("second batch should continue the archive sequence, got %v", names)
	}
}

func TestIndexingPipeline_ExtractionFailureLeavesIndexUntouched(t *testing.T) {
	ing := newTestIngestor(t, staticDates{})
	store := newRecordingStore()
	pipe := NewIndexingPipeline(ing, &fakeLoader{err: errBoom}, newTestSplitter(t), &fakeEmbedder{}, store, testLogger())

	if _, err := pipe.Stage([]ingest.UploadedFile{{Name: "broken.pdf", Data: []byte("%PDF")}}); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	err := pipe.Index(context.Background())
	if !errors.Is(err, ErrTextExtraction) {
		t.Fatalf("expected ErrTextExtraction, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("nothing may reach the index when extraction fails")
	}
	if staged, _ := ing.StagedPDFs(); len(staged) != 1 {
		t.Error("failed batch must stay in staging, not be archived")
	}
}

func TestIndexingPipeline_EmbeddingFailureIsIndexWrite(t *testing.T) {
	ing := newTestIngestor(t, staticDates{})
	store := newRecordingStore()
	pipe := NewIndexingPipeline(ing, &fakeLoader{}, newTestSplitter(t), &fakeEmbedder{err: errBoom}, store, testLogger())

	if _, err := pipe.Stage([]ingest.UploadedFile{{Name: "doc.pdf", Data: []byte("%PDF")}}); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	err := pipe.Index(context.Background())
	if !errors.Is(err, ErrIndexWrite) {
		t.Fatalf("expected ErrIndexWrite, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("no chunks may be stored when embedding fails")
	}
	if staged, _ := ing.StagedPDFs(); len(staged) != 1 {
		t.Error("failed batch must stay in staging, not be archived")
	}
}

func TestIndexingPipeline_UpsertFailureIsIndexWrite(t *testing.T) {
	ing := newTestIngestor(t, staticDates{})
	store := newRecordingStore()
	store.addErr = errBoom
	pipe := NewIndexingPipeline(ing, &fakeLoader{}, newTestSplitter(t), &fakeEmbedder{}, store, testLogger())

	if _, err := pipe.Stage([]ingest.UploadedFile{{Name: "doc.pdf", Data: []byte("%PDF")}}); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	if err := pipe.Index(context.Background()); !errors.Is(err, ErrIndexWrite) {
		t.Fatalf("expected ErrIndexWrite, got %v", err)
	}
}

func TestIndexingPipeline_ArchiveFailureAfterIndexing(t *testing.T) {
	ing := newTestIngestor(t, staticDates{"doc.pdf": "D:20230615120000Z"})
	store := newRecordingStore()
	pipe := NewIndexingPipeline(ing, &fakeLoader{}, newTestSplitter(t), &fakeEmbedder{}, store, testLogger())

	if _, err := pipe.Stage([]ingest.UploadedFile{{Name: "doc.pdf", Data: []byte("%PDF")}}); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// Block the archive move by occupying the destination path with a
	// directory.
	if err := os.MkdirAll(filepath.Join(ing.ArchiveDir(), "1-20230615.pdf"), 0o755); err != nil {
		t.Fatalf("block archive path: %v", err)
	}

	err := pipe.Index(context.Background())
	if !errors.Is(err, ingest.ErrArchiveMove) {
		t.Fatalf("expected ErrArchiveMove, got %v", err)
	}
	// Indexing completed before the archive step failed; chunks stay indexed.
	if store.Len() == 0 {
		t.Error("chunks indexed before the archive failure must remain in the store")
	}
}

func TestIndexingPipeline_EmptyBatchIsNoOp(t *testing.T) {
	ing := newTestIngestor(t, staticDates{})
	store := newRecordingStore()
	embedder := &fakeEmbedder{}
	pipe := NewIndexingPipeline(ing, &fakeLoader{}, newTestSplitter(t), embedder, store, testLogger())

	if _, err := pipe.Stage(nil); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := pipe.Index(context.Background()); err != nil {
		t.Fatalf("Index of empty batch: %v", err)
	}
	if embedder.calls != 0 {
		t.Error("embedder must not be called for an empty batch")
	}
}
