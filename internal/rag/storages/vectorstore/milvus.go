package vectorstore

import (
	"context"
	"fmt"

	"empchat/internal/database/milvus"
	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"
	"empchat/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// Schema fields of the Milvus chunk collection.
	FieldID        = "id"
	FieldText      = "text"
	FieldSource    = "source"
	FieldPageLabel = "page_label"
)

// MilvusStore adapts the Milvus client to the VectorStore interface. Scores
// leaving this adapter always follow the higher-is-more-similar convention:
// L2 distances are converted, IP/COSINE scores pass through.
type MilvusStore struct {
	log         logger.Logger
	client      client.Client
	collection  string
	vectorField string
	metric      entity.MetricType
}

// NewMilvusStore creates a new MilvusStore adapter over the project's Milvus
// client wrapper.
func NewMilvusStore(milvusClient *milvus.MilvusClient, log logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		log:         log,
		client:      milvusClient.Client,
		collection:  milvusClient.Config.CollectionName,
		vectorField: milvusClient.Config.VectorField,
		metric:      milvusClient.MetricType(),
	}, nil
}

// Add inserts the documents into the Milvus collection. Entries are written
// as-is; inserting the same content twice duplicates it.
func (s *MilvusStore) Add(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	sources := make([]string, len(docs))
	pageLabels := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))

	dim := 0
	for i, doc := range docs {
		ids[i] = doc.ID
		texts[i] = doc.Text
		embeddings[i] = doc.Embedding
		if len(doc.Embedding) > dim {
			dim = len(doc.Embedding)
		}
		sources[i] = doc.Source()
		if pl, ok := doc.Metadata[schema.MetadataKeyPageLabel].(string); ok {
			pageLabels[i] = pl
		}
	}

	cols := []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldText, texts),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnVarChar(FieldPageLabel, pageLabels),
		entity.NewColumnFloatVector(s.vectorField, dim, embeddings),
	}

	s.log.Info(fmt.Sprintf("Inserting %d documents into Milvus collection: %s", len(docs), s.collection))
	if _, err := s.client.Insert(ctx, s.collection, "" /* default partition */, cols...); err != nil {
		s.log.Error(fmt.Sprintf("Failed to insert data into Milvus: %v", err))
		return fmt.Errorf("failed to insert data into Milvus: %w", err)
	}

	return nil
}

// Query returns the topK most similar documents to the embedding.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
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

// QueryWithScores returns the topK most similar documents with their
// similarity scores.
func (s *MilvusStore) QueryWithScores(ctx context.Context, embedding []float32, topK int) ([]*schema.ScoredDocument, error) {
	outputFields := []string{FieldID, FieldText, FieldSource, FieldPageLabel}
	results, err := s.search(ctx, embedding, topK, outputFields)
	if err != nil {
		return nil, err
	}

	var scored []*schema.ScoredDocument
	for _, res := range results {
		docs, err := documentsFromResult(res)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Skipping malformed search result: %v", err))
			continue
		}
		for i, doc := range docs {
			scored = append(scored, &schema.ScoredDocument{
				Document: doc,
				Score:    similarityFromMetric(s.metric, res.Scores[i]),
			})
		}
	}

	return scored, nil
}

// QueryMMR fetches fetchK candidates with their vectors and re-selects topK
// of them by maximal marginal relevance.
func (s *MilvusStore) QueryMMR(ctx context.Context, embedding []float32, topK, fetchK int, lambda float64) ([]*schema.Document, error) {
	outputFields := []string{FieldID, FieldText, FieldSource, FieldPageLabel, s.vectorField}
	results, err := s.search(ctx, embedding, fetchK, outputFields)
	if err != nil {
		return nil, err
	}

	var candidates []*schema.Document
	var vectors [][]float32
	for _, res := range results {
		docs, err := documentsFromResult(res)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Skipping malformed search result: %v", err))
			continue
		}

		vecCol, ok := findColumn(res.Fields, s.vectorField).(*entity.ColumnFloatVector)
		if !ok {
			return nil, fmt.Errorf("search result is missing the vector field %q", s.vectorField)
		}
		vecData := vecCol.Data()

		for i, doc := range docs {
			doc.Embedding = vecData[i]
			candidates = append(candidates, doc)
			vectors = append(vectors, vecData[i])
		}
	}

	var docs []*schema.Document
	for _, idx := range mmrSelect(embedding, vectors, topK, lambda) {
		docs = append(docs, candidates[idx])
	}
	return docs, nil
}

func (s *MilvusStore) search(ctx context.Context, embedding []float32, topK int, outputFields []string) ([]client.SearchResult, error) {
	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)

	s.log.Debug(fmt.Sprintf("Searching Milvus collection '%s' (topK=%d)", s.collection, topK))
	results, err := s.client.Search(
		ctx, s.collection, []string{}, "", outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		s.vectorField, s.metric, topK, searchParams,
	)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to search in Milvus: %v", err))
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}
	return results, nil
}

// documentsFromResult converts one Milvus search result into documents, in
// result order.
func documentsFromResult(res client.SearchResult) ([]*schema.Document, error) {
	idCol, ok := findColumn(res.Fields, FieldID).(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("result is missing the %q field", FieldID)
	}
	textCol, ok := findColumn(res.Fields, FieldText).(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("result is missing the %q field", FieldText)
	}

	var sourceData, pageData []string
	if sourceCol, ok := findColumn(res.Fields, FieldSource).(*entity.ColumnVarChar); ok {
		sourceData = sourceCol.Data()
	}
	if pageCol, ok := findColumn(res.Fields, FieldPageLabel).(*entity.ColumnVarChar); ok {
		pageData = pageCol.Data()
	}

	idData := idCol.Data()
	textData := textCol.Data()

	docs := make([]*schema.Document, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		doc := &schema.Document{
			ID:       idData[i],
			Text:     textData[i],
			Metadata: map[string]interface{}{},
		}
		if sourceData != nil {
			doc.Metadata[schema.MetadataKeySource] = sourceData[i]
		}
		if pageData != nil {
			doc.Metadata[schema.MetadataKeyPageLabel] = pageData[i]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func findColumn(fields []entity.Column, name string) entity.Column {
	for _, field := range fields {
		if field.Name() == name {
			return field
		}
	}
	return nil
}

// similarityFromMetric converts a raw Milvus score into the adapter's
// higher-is-more-similar convention. IP and COSINE scores already follow it;
// L2 distances are mapped through 1/(1+distance) so smaller distances rank
// higher.
func similarityFromMetric(metric entity.MetricType, score float32) float64 {
	if metric == entity.L2 {
		return 1.0 / (1.0 + float64(score))
	}
	return float64(score)
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
