package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lecture-rag-backend/internal/ai"
	"lecture-rag-backend/internal/config"
	"lecture-rag-backend/internal/logger"
	"lecture-rag-backend/internal/telemetry"
	"lecture-rag-backend/internal/vectorstore"
	"lecture-rag-backend/middleware"
	"lecture-rag-backend/routes"
	"lecture-rag-backend/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("lecture-rag-backend", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to init metrics:", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatal("Failed to create upload directory:", err)
	}

	// Open the persistent vector store
	store, err := vectorstore.NewStore(cfg.ChromaDBPath, cfg.CollectionName, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal("Failed to open vector store:", err)
	}
	logger.Info("Vector store opened", "path", cfg.ChromaDBPath, "collection", cfg.CollectionName, "count", store.Count())

	// Gemini client serves both embeddings and answer generation
	gemini, err := ai.NewGeminiClient(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer gemini.Close()

	processor := services.NewDocumentProcessor(cfg.MaxChunkSize, cfg.ChunkOverlap)
	ragService := services.NewRAGService(processor, gemini, gemini, store)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	// Multipart framing adds a little overhead on top of the file itself.
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1<<20))

	// Rate limiting is optional: without a reachable Redis the API runs
	// unthrottled.
	if rdb, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("Rate limiting disabled: Redis unavailable", "error", err)
	} else {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupRAGRoutes(router, cfg, ragService, metrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
