package routes

import (
	"lecture-rag-backend/internal/config"
	"lecture-rag-backend/internal/telemetry"
	"lecture-rag-backend/services"

	"github.com/gin-gonic/gin"
)

// SetupRAGRoutes registers the upload, chat and vector store admin routes.
func SetupRAGRoutes(router *gin.Engine, cfg *config.Config, svc *services.RAGService, metrics *telemetry.Metrics) {
	api := router.Group("/api")

	api.POST("/upload", HandleUpload(cfg, svc, metrics))
	api.POST("/chat", HandleChat(cfg, svc))

	vs := api.Group("/vectorstore")
	vs.GET("/count", HandleCount(svc))
	vs.DELETE("/delete_all", HandleDeleteAll(svc))
}
