package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"empchat/internal/rag/history"
	"empchat/internal/rag/ingest"
	"empchat/internal/rag/pipeline"
	"empchat/internal/rag/schema"
	"empchat/pkg/logger"
)

const historyWindow = 20

// IngestReport summarizes one ingestion batch for the upload surface.
type IngestReport struct {
	Files   []string `json:"files"`
	Message string   `json:"message"`
}

// RAGService glues the ingestion and query pipelines behind the HTTP API and
// keeps per-session chat history around the answers.
type RAGService struct {
	indexing     *pipeline.IndexingPipeline
	orchestrator *pipeline.QueryOrchestrator
	history      *history.RedisStore
	log          logger.Logger
}

// NewRAGService creates a new RAGService. history may be nil, in which case
// sessions are not recorded.
func NewRAGService(
	indexing *pipeline.IndexingPipeline,
	orchestrator *pipeline.QueryOrchestrator,
	hist *history.RedisStore,
	log logger.Logger,
) *RAGService {
	return &RAGService{
		indexing:     indexing,
		orchestrator: orchestrator,
		history:      hist,
		log:          log,
	}
}

// Ingest stages the uploaded PDFs and runs the full indexing batch. The
// returned report carries the canonical file names and a user-facing status
// message; on failure the message names the step that failed.
func (s *RAGService) Ingest(ctx context.Context, files []ingest.UploadedFile) (*IngestReport, error) {
	names, err := s.indexing.Stage(files)
	if err != nil {
		return &IngestReport{Message: stepMessage(err)}, err
	}

	if err := s.indexing.Index(ctx); err != nil {
		return &IngestReport{Files: names, Message: stepMessage(err)}, err
	}

	s.log.Info(fmt.Sprintf("Ingested %d PDFs into the knowledge base", len(names)))
	return &IngestReport{
		Files:   names,
		Message: "Files processed and added to the knowledge base.",
	}, nil
}

// Query answers the question under the given retrieval filters and records
// both turns in the session's chat history. History failures are logged but
// never fail the query.
func (s *RAGService) Query(ctx context.Context, sessionID, question string, filters schema.RetrievalFilters) (*schema.Answer, error) {
	s.recordTurn(ctx, sessionID, history.RoleUser, question)

	answer, err := s.orchestrator.Answer(ctx, question, filters)
	if err != nil {
		return nil, err
	}

	s.recordTurn(ctx, sessionID, history.RoleAssistant, answer.Text)
	return answer, nil
}

// History returns the most recent turns of the session.
func (s *RAGService) History(ctx context.Context, sessionID string) ([]history.Message, error) {
	if s.history == nil || sessionID == "" {
		return nil, nil
	}
	return s.history.Recent(ctx, sessionID, historyWindow)
}

func (s *RAGService) recordTurn(ctx context.Context, sessionID, role, text string) {
	if s.history == nil || sessionID == "" {
		return
	}
	msg := history.Message{Role: role, Text: text, Timestamp: time.Now()}
	if err := s.history.Append(ctx, sessionID, msg); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to record %s turn for session %s: %v", role, sessionID, err))
	}
}

// stepMessage maps a pipeline error to the user-facing status message of the
// step that failed.
func stepMessage(err error) string {
	switch {
	case errors.Is(err, ingest.ErrStagingWrite):
		return "Failed to save the uploaded files."
	case errors.Is(err, pipeline.ErrTextExtraction):
		return "Failed to extract text from the uploaded PDFs."
	case errors.Is(err, pipeline.ErrIndexWrite):
		return "Failed to add the documents to the knowledge base."
	case errors.Is(err, ingest.ErrArchiveMove):
		return "Documents were indexed but could not be archived."
	default:
		return "Failed to process the uploaded files."
	}
}
