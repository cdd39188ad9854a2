package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"rag-platform/internal/logger"
	"rag-platform/internal/queue"
	"rag-platform/models"
	"rag-platform/services"
	"rag-platform/utils"
)

// RAGDeps wires the pipeline services into the HTTP handlers. Web and
// Queue are optional; their endpoints report unavailability when nil.
type RAGDeps struct {
	Chunker       *services.Chunker
	Ingestor      *services.Ingestor
	Retriever     *services.Retriever
	Synth         *services.Synthesizer
	Web           *services.WebAnswerer
	Files         services.FileLoader
	Queue         *asynq.Client
	MinChunkChars int
	UploadDir     string
}

func SetupRAGRoutes(router *gin.Engine, deps RAGDeps) {
	if deps.UploadDir == "" {
		deps.UploadDir = os.TempDir()
	}

	router.POST("/ask", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		passages, err := deps.Retriever.Retrieve(ctx, req.Question, req.TopK)
		if err != nil {
			logger.Error("retrieval failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to retrieve context", nil)
			return
		}

		answer, err := deps.Synth.Synthesize(ctx, req.Question, services.BuildContext(passages))
		if err != nil {
			logger.Error("synthesis failed", "error", err)
			utils.RespondWithServiceUnavailable(c, "Generation provider unavailable")
			return
		}

		c.JSON(http.StatusOK, models.AskResponse{
			Answer:   answer,
			Passages: passageViews(passages),
		})
	})

	router.POST("/ask/web", func(c *gin.Context) {
		if deps.Web == nil {
			utils.RespondWithServiceUnavailable(c, "Web search is not configured")
			return
		}

		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		answer, err := deps.Web.Answer(c.Request.Context(), req.Question)
		if err != nil {
			logger.Error("web answer failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to answer from web sources", nil)
			return
		}

		c.JSON(http.StatusOK, models.AskResponse{Answer: answer})
	})

	router.POST("/documents", func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		doc := models.Document{Text: req.Text, Metadata: req.Metadata}
		chunks, inserted := ingestDocument(c, deps, doc)
		c.JSON(http.StatusOK, models.IngestResponse{Chunks: chunks, Inserted: inserted})
	})

	router.POST("/documents/file", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "File is required", gin.H{"error": err.Error()})
			return
		}

		dst := filepath.Join(deps.UploadDir, uuid.NewString()+filepath.Ext(fileHeader.Filename))
		if err := c.SaveUploadedFile(fileHeader, dst); err != nil {
			utils.RespondWithInternalError(c, "Failed to store upload", nil)
			return
		}
		defer os.Remove(dst)

		doc, err := deps.Files.Load(dst)
		if err != nil {
			utils.RespondWithBadRequest(c, "Unsupported or unreadable file", gin.H{"error": err.Error()})
			return
		}
		doc.Metadata["source"] = fileHeader.Filename
		doc.Metadata["filename"] = fileHeader.Filename

		chunks, inserted := ingestDocument(c, deps, doc)
		c.JSON(http.StatusOK, models.IngestResponse{Chunks: chunks, Inserted: inserted})
	})

	router.POST("/documents/async", func(c *gin.Context) {
		if deps.Queue == nil {
			utils.RespondWithServiceUnavailable(c, "Async ingestion is not configured")
			return
		}

		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		task, err := queue.NewTextIngestTask(req.Text, req.Metadata)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build ingest task", nil)
			return
		}
		info, err := deps.Queue.EnqueueContext(c.Request.Context(), task)
		if err != nil {
			logger.Error("enqueue failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to enqueue ingest task", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
	})
}

func ingestDocument(c *gin.Context, deps RAGDeps, doc models.Document) (chunkCount, inserted int) {
	chunks := deps.Chunker.Split(doc)
	chunks = services.FilterShort(chunks, deps.MinChunkChars)

	batch := make([]models.Document, len(chunks))
	for i, ch := range chunks {
		batch[i] = ch.AsDocument()
	}
	return len(chunks), deps.Ingestor.IngestAll(c.Request.Context(), batch)
}

func passageViews(passages []services.Passage) []models.PassageView {
	views := make([]models.PassageView, 0, len(passages))
	for _, p := range passages {
		views = append(views, models.PassageView{Text: p.Text, Score: p.Score})
	}
	return views
}
