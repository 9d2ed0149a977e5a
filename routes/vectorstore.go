package routes

import (
	"fmt"
	"net/http"

	"lecture-rag-backend/internal/logger"
	"lecture-rag-backend/models"
	"lecture-rag-backend/services"
	"lecture-rag-backend/utils"

	"github.com/gin-gonic/gin"
)

// HandleCount reports how many chunks the vector store holds.
func HandleCount(svc *services.RAGService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.CountResponse{Count: svc.Count()})
	}
}

// HandleDeleteAll drops every stored chunk. Irreversible; any confirmation
// step belongs to the UI.
func HandleDeleteAll(svc *services.RAGService) gin.HandlerFunc {
	return func(c *gin.Context) {
		countBefore := svc.Count()
		logger.Warn("Delete-all requested", "count_before", countBefore)

		if err := svc.DeleteAll(); err != nil {
			logger.Error("Failed to delete collection", "error", err)
			utils.RespondWithInternalError(c, "Failed to delete collection", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, models.DeleteResponse{
			Status:  "success",
			Message: fmt.Sprintf("Deleted all documents from the vector store (previous count: %d). An empty collection has been recreated.", countBefore),
		})
	}
}
