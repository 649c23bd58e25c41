package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"empchat/internal/rag/schema"
	"empchat/internal/rag/storages/vectorstore"
	"empchat/pkg/logger"

	"github.com/sirupsen/logrus"
)

func testLogger() logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return *logger.New("pipeline-test")
}

// fakeEmbedder returns scripted vectors per text, with a unit-vector
// fallback for unknown texts.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0, 0}
		}
	}
	return out, nil
}

// fakeLLM records every prompt and answers with a fixed string.
type fakeLLM struct {
	prompts []string
	answer  string
	err     error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.answer == "" {
		return "generated answer, thanks for asking!", nil
	}
	return f.answer, nil
}

// fakeLoader produces one page per staged file without touching real PDFs.
type fakeLoader struct {
	pageText string
	err      error
}

func (f *fakeLoader) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	text := f.pageText
	if text == "" {
		text = "page content of " + filepath.Base(path)
	}
	return []*schema.Document{{
		ID:   "page-" + filepath.Base(path),
		Text: text,
		Metadata: map[string]interface{}{
			schema.MetadataKeySource:    filepath.Base(path),
			schema.MetadataKeyPageLabel: "1",
		},
	}}, nil
}

// recordingStore wraps the in-memory store and counts which retrieval mode
// was used.
type recordingStore struct {
	*vectorstore.MemoryStore
	addErr     error
	queryCalls int
	mmrCalls   int
	scoreCalls int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: vectorstore.NewMemoryStore()}
}

func (r *recordingStore) Add(ctx context.Context, docs []*schema.Document) error {
	if r.addErr != nil {
		return r.addErr
	}
	return r.MemoryStore.Add(ctx, docs)
}

func (r *recordingStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	r.queryCalls++
	return r.MemoryStore.Query(ctx, embedding, topK)
}

func (r *recordingStore) QueryMMR(ctx context.Context, embedding []float32, topK, fetchK int, lambda float64) ([]*schema.Document, error) {
	r.mmrCalls++
	return r.MemoryStore.QueryMMR(ctx, embedding, topK, fetchK, lambda)
}

func (r *recordingStore) QueryWithScores(ctx context.Context, embedding []float32, topK int) ([]*schema.ScoredDocument, error) {
	r.scoreCalls++
	return r.MemoryStore.QueryWithScores(ctx, embedding, topK)
}

// seedStore fills a store with n chunks along distinct directions.
func seedStore(store *recordingStore, sources ...string) error {
	var docs []*schema.Document
	for i, source := range sources {
		v := []float32{1, float32(i) * 0.1, 0}
		docs = append(docs, &schema.Document{
			ID:        fmt.Sprintf("chunk-%d", i+1),
			Text:      "step description from " + source,
			Embedding: v,
			Metadata: map[string]interface{}{
				schema.MetadataKeySource:    source,
				schema.MetadataKeyPageLabel: "1",
			},
		})
	}
	return store.MemoryStore.Add(context.Background(), docs)
}

var errBoom = errors.New("boom")

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
