package pipeline

import (
	"context"
	"errors"
	"fmt"

	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"
	"empchat/pkg/logger"
)

// ErrRetrieval reports an embedding or vector-index failure during a query.
// It surfaces directly to the caller; no fallback answer is produced.
var ErrRetrieval = errors.New("retrieval failed")

// RetrievalOptions are the query-time defaults of the orchestrator.
type RetrievalOptions struct {
	TopK        int     // chunks fed to the answer prompt
	FetchK      int     // candidate pool for MMR re-selection
	MMRLambda   float64 // relevance/diversity trade-off for MMR
	SourceCount int     // contexts cited on the non-rerank paths
}

// QueryOrchestrator is the top-level query entry point. Per call it selects
// one of three mutually exclusive strategies from the filters: rerank by
// recency, process-chain answer, or plain RAG answer. All collaborator calls
// are issued strictly sequentially.
type QueryOrchestrator struct {
	embedder interfaces.EmbeddingModel
	store    interfaces.VectorStore
	reranker interfaces.Reranker
	qa       *QAPipeline
	opts     RetrievalOptions
	log      logger.Logger
}

// NewQueryOrchestrator creates a new QueryOrchestrator.
func NewQueryOrchestrator(
	embedder interfaces.EmbeddingModel,
	store interfaces.VectorStore,
	reranker interfaces.Reranker,
	qa *QAPipeline,
	opts RetrievalOptions,
	log logger.Logger,
) *QueryOrchestrator {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.FetchK <= 0 {
		opts.FetchK = 20
	}
	if opts.MMRLambda <= 0 {
		opts.MMRLambda = 0.5
	}
	if opts.SourceCount <= 0 {
		opts.SourceCount = 3
	}
	return &QueryOrchestrator{
		embedder: embedder,
		store:    store,
		reranker: reranker,
		qa:       qa,
		opts:     opts,
		log:      log,
	}
}

// Answer resolves the query under the given filters and returns the answer
// text together with its citation block. Rerank takes precedence over
// ProcessChain; MMR only applies to the non-rerank strategies.
func (o *QueryOrchestrator) Answer(ctx context.Context, query string, filters schema.RetrievalFilters) (*schema.Answer, error) {
	o.log.Info(fmt.Sprintf("Answering query with filters mmr=%t processChain=%t rerank=%t",
		filters.MMR, filters.ProcessChain, filters.Rerank))

	queryVec, err := o.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if filters.Rerank {
		return o.rerankedAnswer(ctx, query, queryVec, filters.RecencyWeight)
	}
	return o.retrievedAnswer(ctx, query, queryVec, filters)
}

// rerankedAnswer blends similarity with recency before answering, and cites
// sources with both scores.
func (o *QueryOrchestrator) rerankedAnswer(ctx context.Context, query string, queryVec []float32, recencyWeight float64) (*schema.Answer, error) {
	scored, err := o.store.QueryWithScores(ctx, queryVec, o.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	reranked := o.reranker.Rerank(scored, recencyWeight)
	docs := make([]*schema.Document, len(reranked))
	for i, sd := range reranked {
		docs[i] = sd.Document
	}

	answer, err := o.qa.ComposePlainAnswer(ctx, query, docs)
	if err != nil {
		return nil, err
	}
	sources, err := o.qa.ComposeSourcesSummary(ctx, reranked, true)
	if err != nil {
		return nil, err
	}

	return &schema.Answer{Text: answer, Sources: sources}, nil
}

// retrievedAnswer serves the process-chain and plain strategies: retrieve
// per the MMR flag, answer with the selected prompt, then cite the top
// most-similar chunks.
func (o *QueryOrchestrator) retrievedAnswer(ctx context.Context, query string, queryVec []float32, filters schema.RetrievalFilters) (*schema.Answer, error) {
	var docs []*schema.Document
	var err error
	if filters.MMR {
		docs, err = o.store.QueryMMR(ctx, queryVec, o.opts.TopK, o.opts.FetchK, o.opts.MMRLambda)
	} else {
		docs, err = o.store.Query(ctx, queryVec, o.opts.TopK)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	var answer string
	if filters.ProcessChain {
		answer, err = o.qa.ComposeProcessChainAnswer(ctx, query, docs)
	} else {
		answer, err = o.qa.ComposePlainAnswer(ctx, query, docs)
	}
	if err != nil {
		return nil, err
	}

	scored, err := o.store.QueryWithScores(ctx, queryVec, o.opts.SourceCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	sources, err := o.qa.ComposeSourcesSummary(ctx, scored, false)
	if err != nil {
		return nil, err
	}

	return &schema.Answer{Text: answer, Sources: sources}, nil
}

func (o *QueryOrchestrator) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := o.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		return nil, fmt.Errorf("%w: failed to embed query: %v", ErrRetrieval, err)
	}
	return vecs[0], nil
}
