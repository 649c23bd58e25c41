package service

import (
	"io"
	"net/http"

	"empchat/internal/rag/ingest"
	"empchat/internal/rag/schema"
	"empchat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// API provides the HTTP handlers of the RAG service.
type API struct {
	service *RAGService
	logger  *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(service *RAGService, logger *logger.Logger) *API {
	return &API{service: service, logger: logger}
}

// NewRouter builds the gin router with all API routes registered.
func NewRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	v1 := router.Group("/api/v1")
	{
		v1.POST("/rag/query", api.QueryHandler)
		v1.POST("/rag/ingest", api.IngestHandler)
		v1.GET("/rag/history", api.HistoryHandler)
	}
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

type queryRequest struct {
	Question  string                  `json:"question" binding:"required"`
	SessionID string                  `json:"sessionId"`
	Filters   schema.RetrievalFilters `json:"filters"`
}

// QueryHandler answers a question over the indexed corpus.
func (a *API) QueryHandler(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	answer, err := a.service.Query(c.Request.Context(), req.SessionID, req.Question, req.Filters)
	if err != nil {
		a.logger.Error("Query failed: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer the question"})
		return
	}

	c.JSON(http.StatusOK, answer)
}

// IngestHandler accepts a multipart batch of PDFs and runs the indexing
// pipeline over it.
func (a *API) IngestHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart payload"})
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	var files []ingest.UploadedFile
	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file " + upload.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file " + upload.Filename})
			return
		}
		files = append(files, ingest.UploadedFile{Name: upload.Filename, Data: data})
	}

	report, err := a.service.Ingest(c.Request.Context(), files)
	if err != nil {
		a.logger.Error("Ingestion failed: " + err.Error())
		c.JSON(http.StatusInternalServerError, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

// HistoryHandler returns the recent turns of a chat session.
func (a *API) HistoryHandler(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	messages, err := a.service.History(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
