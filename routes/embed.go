package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-platform/internal/ai"
	"rag-platform/internal/logger"
	"rag-platform/models"
	"rag-platform/services"
	"rag-platform/utils"
)

// SetupEmbedRoutes exposes the combined embed-ingest-answer endpoint:
// the text is embedded, stored unless already present, and then answered
// against the full store.
func SetupEmbedRoutes(router *gin.Engine, embedder ai.Embedder, ingestor *services.Ingestor, retriever *services.Retriever, synth *services.Synthesizer) {
	router.POST("/embeddings", func(c *gin.Context) {
		var req models.EmbedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		vector, err := embedder.Embed(ctx, req.Text)
		if err != nil {
			logger.Error("embedding failed", "error", err)
			utils.RespondWithServiceUnavailable(c, "Embedding provider unavailable")
			return
		}

		if _, err := ingestor.IngestIfNew(ctx, models.Document{Text: req.Text}); err != nil {
			logger.Error("ingest failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to store document", nil)
			return
		}

		passages, err := retriever.Retrieve(ctx, req.Text, 0)
		if err != nil {
			logger.Error("retrieval failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to retrieve context", nil)
			return
		}

		chat, err := synth.Synthesize(ctx, req.Text, services.BuildContext(passages))
		if err != nil {
			logger.Error("synthesis failed", "error", err)
			utils.RespondWithServiceUnavailable(c, "Generation provider unavailable")
			return
		}

		c.JSON(http.StatusOK, models.EmbedResponse{Embeddings: vector, Chat: chat})
	})
}
