package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"lecture-rag-backend/internal/config"
	"lecture-rag-backend/internal/logger"
	"lecture-rag-backend/internal/telemetry"
	"lecture-rag-backend/models"
	"lecture-rag-backend/services"
	"lecture-rag-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HandleUpload ingests one uploaded lecture document: the file is saved
// under a per-request temp directory, processed into embedded chunks, and
// the temp directory is removed whatever the outcome.
func HandleUpload(cfg *config.Config, svc *services.RAGService, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file",
				"No file provided in multipart field 'file'", nil)
			return
		}
		defer file.Close()

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit",
				gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		safeName := utils.SanitizeFilename(header.Filename)
		if !services.IsSupported(safeName) {
			utils.RespondWithError(c, http.StatusBadRequest, "unsupported_file_type",
				fmt.Sprintf("Unsupported file type: %s", filepath.Ext(safeName)),
				gin.H{"supported": services.SupportedExtensions})
			return
		}

		// Per-request directory so concurrent uploads of the same filename
		// cannot clobber each other.
		tempDir := filepath.Join(cfg.UploadDir, uuid.NewString())
		if err := os.MkdirAll(tempDir, 0755); err != nil {
			utils.RespondWithInternalError(c, "Failed to create upload directory", nil)
			return
		}
		defer os.RemoveAll(tempDir)

		filePath := filepath.Join(tempDir, safeName)
		dst, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to save uploaded file", nil)
			return
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			utils.RespondWithInternalError(c, "Failed to save uploaded file", nil)
			return
		}
		dst.Close()

		start := time.Now()
		chunksAdded, err := svc.IngestFile(c.Request.Context(), filePath)
		if err != nil {
			if errors.Is(err, services.ErrUnsupportedType) || errors.Is(err, services.ErrEmptyDocument) {
				utils.RespondWithBadRequest(c,
					"Could not extract text from file. It may be empty or in an unsupported format.",
					gin.H{"error": err.Error()})
				return
			}
			logger.Error("Document ingestion failed", "file", safeName, "error", err)
			utils.RespondWithInternalError(c, "Failed to process document", gin.H{"error": err.Error()})
			return
		}
		metrics.RecordIngest(chunksAdded, time.Since(start).Seconds())
		logger.Info("Document uploaded", "file", safeName, "chunks_added", chunksAdded)

		c.JSON(http.StatusCreated, models.UploadResponse{
			Status:      "success",
			File:        safeName,
			ChunksAdded: chunksAdded,
			Message:     "File processed and added to the vector store.",
		})
	}
}
