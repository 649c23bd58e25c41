package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/schema"
	"empchat/pkg/logger"
)

// ErrGeneration reports a generative-model failure during answer or citation
// composition. No retry or fallback answer is attempted; the error surfaces
// to the caller.
var ErrGeneration = errors.New("generation failed")

// maxSourceContexts is the number of contexts shown in a citation block.
const maxSourceContexts = 3

// QAPipeline composes prompts from retrieved context and calls the LLM.
// All methods are stateless transforms; nothing is remembered across calls.
type QAPipeline struct {
	llm interfaces.LLM
	log logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(llm interfaces.LLM, log logger.Logger) *QAPipeline {
	return &QAPipeline{llm: llm, log: log}
}

// ComposePlainAnswer answers the query from the given context with the
// standard RAG prompt: answer only from context, admit ignorance instead of
// fabricating, close with a fixed phrase.
func (p *QAPipeline) ComposePlainAnswer(ctx context.Context, query string, docs []*schema.Document) (string, error) {
	prompt := fmt.Sprintf(plainAnswerTemplate, buildContext(docs), query)
	return p.generate(ctx, "plain answer", prompt)
}

// ComposeProcessChainAnswer answers the query with the structured, stepwise
// process-chain prompt used for procedural questions.
func (p *QAPipeline) ComposeProcessChainAnswer(ctx context.Context, query string, docs []*schema.Document) (string, error) {
	prompt := fmt.Sprintf(processChainTemplate, buildContext(docs), query)
	return p.generate(ctx, "process chain answer", prompt)
}

// ComposeSourcesSummary formats up to 3 scored contexts into a
// human-readable, emoji-annotated citation block. includeWeightedScore
// selects whether the recency-blended score appears next to the similarity
// score.
func (p *QAPipeline) ComposeSourcesSummary(ctx context.Context, scored []*schema.ScoredDocument, includeWeightedScore bool) (string, error) {
	if len(scored) > maxSourceContexts {
		scored = scored[:maxSourceContexts]
	}

	template := similaritySourcesTemplate
	if includeWeightedScore {
		template = weightedSourcesTemplate
	}
	prompt := fmt.Sprintf(template, buildScoredContext(scored, includeWeightedScore))
	return p.generate(ctx, "sources summary", prompt)
}

func (p *QAPipeline) generate(ctx context.Context, step, prompt string) (string, error) {
	p.log.Info(fmt.Sprintf("Sending %s prompt to LLM", step))
	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		p.log.Error(fmt.Sprintf("LLM failed to generate %s: %v", step, err))
		return "", fmt.Errorf("%w: %s: %v", ErrGeneration, step, err)
	}
	return answer, nil
}

// buildContext renders retrieved documents as a numbered context block.
func buildContext(docs []*schema.Document) string {
	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, doc.Text))
	}
	sb.WriteString("---")
	return sb.String()
}

// buildScoredContext renders scored documents with their source file name,
// scores and metadata for the citation prompt.
func buildScoredContext(scored []*schema.ScoredDocument, includeWeightedScore bool) string {
	var sb strings.Builder
	for i, sd := range scored {
		sb.WriteString(fmt.Sprintf("Source %d\n", i+1))
		sb.WriteString(fmt.Sprintf("Filename: %s\n", sd.Document.Source()))
		sb.WriteString(fmt.Sprintf("Similarity Score: %.4f\n", sd.Score))
		if includeWeightedScore {
			sb.WriteString(fmt.Sprintf("Weighted Score: %.4f\n", sd.WeightedScore))
		}
		if page, ok := sd.Document.Metadata[schema.MetadataKeyPageLabel].(string); ok && page != "" {
			sb.WriteString(fmt.Sprintf("Metadata: page %s\n", page))
		}
		sb.WriteString(fmt.Sprintf("Context: %s\n\n", sd.Document.Text))
	}
	return strings.TrimRight(sb.String(), "\n")
}
