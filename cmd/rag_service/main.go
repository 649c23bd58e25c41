package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"empchat/internal/config"
	"empchat/internal/database/milvus"
	"empchat/internal/database/redis"
	"empchat/internal/embedding"
	"empchat/internal/llm"
	"empchat/internal/rag/history"
	"empchat/internal/rag/ingest"
	"empchat/internal/rag/interfaces"
	"empchat/internal/rag/loaders"
	"empchat/internal/rag/pipeline"
	"empchat/internal/rag/rerankers"
	"empchat/internal/rag/splitters"
	"empchat/internal/rag/storages/vectorstore"
	"empchat/internal/service"
	"empchat/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200

	historyTTL = 24 * time.Hour
)

func main() {
	// 1. Initialize Logger
	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("RAGService")
	appLogger.Info("Starting EMP chatbot RAG service...")

	// 2. Load environment and configuration
	if err := godotenv.Load(); err != nil {
		appLogger.Warn("No .env file found, relying on the environment")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully")

	ctx := context.Background()

	// 3. Initialize external dependencies
	var store interfaces.VectorStore
	switch cfg.Databases.VectorBackend {
	case "memory":
		appLogger.Warn("Using the in-memory vector store; the index is lost on restart")
		store = vectorstore.NewMemoryStore()
	default:
		milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		defer milvusClient.Close()
		if err := milvusClient.EnsureCollection(ctx); err != nil {
			log.Fatalf("Failed to prepare Milvus collection: %v", err)
		}
		store, err = vectorstore.NewMilvusStore(milvusClient, *logger.New("MilvusStore"))
		if err != nil {
			log.Fatalf("Failed to create vector store: %v", err)
		}
	}

	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	embeddingClient, err := embedding.NewModel(
		cfg.Embedding.Provider, cfg.Embedding.Name, cfg.Embedding.APIKey, cfg.Embedding.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}
	llmClient, err := llm.NewClient(
		cfg.LLM.Provider, cfg.LLM.Name, cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	// 4. Assemble the RAG pipelines
	loader := loaders.NewPdfLoader()
	splitter, err := splitters.NewCharSplitter(chunkSize, chunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}

	ingestor := ingest.NewIngestor(
		cfg.Storage.StagingDir, cfg.Storage.ArchiveDir, loader, *logger.New("Ingestor"))
	embedder := embedding.NewBatchModel(embeddingClient)

	indexing := pipeline.NewIndexingPipeline(
		ingestor, loader, splitter, embedder, store, *logger.New("IndexingPipeline"))
	orchestrator := pipeline.NewQueryOrchestrator(
		embedder, store, rerankers.NewRecencyReranker(),
		pipeline.NewQAPipeline(llmClient, *logger.New("QAPipeline")),
		pipeline.RetrievalOptions{
			TopK:        cfg.Retrieval.TopK,
			FetchK:      cfg.Retrieval.FetchK,
			MMRLambda:   cfg.Retrieval.MMRLambda,
			SourceCount: cfg.Retrieval.SourceCount,
		},
		*logger.New("QueryOrchestrator"))

	chatHistory := history.NewRedisStore(redisClient, historyTTL, *logger.New("ChatHistory"))
	ragService := service.NewRAGService(indexing, orchestrator, chatHistory, *appLogger)

	// 5. Start the HTTP server
	router := service.NewRouter(service.NewAPI(ragService, appLogger))
	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Forced shutdown: %v", err))
	}
	appLogger.Info("Server gracefully stopped")
}
