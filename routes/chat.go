package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lecture-rag-backend/internal/ai"
	"lecture-rag-backend/internal/config"
	"lecture-rag-backend/internal/logger"
	"lecture-rag-backend/models"
	"lecture-rag-backend/services"
	"lecture-rag-backend/utils"

	"github.com/gin-gonic/gin"
)

// HandleChat answers one question with retrieval-augmented generation.
func HandleChat(cfg *config.Config, svc *services.RAGService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"Invalid request data", gin.H{"error": err.Error()})
			return
		}

		k := req.K
		if k == 0 {
			k = cfg.DefaultTopK
		}
		if k < 1 || k > cfg.MaxTopK {
			utils.RespondWithBadRequest(c, "k out of range",
				gin.H{"min": 1, "max": cfg.MaxTopK})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		resp, err := svc.Chat(ctx, req.Query, k)
		if err != nil {
			if errors.Is(err, ai.ErrRateLimited) {
				utils.RespondWithError(c, http.StatusServiceUnavailable, "service_busy",
					"The model API is rate limited. Please try again shortly.", nil)
				return
			}
			logger.Error("Chat request failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to generate answer", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
