package middleware

import (
	"net/http"

	"lecture-rag-backend/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimit rejects requests whose declared body exceeds maxSize and
// caps actual reads at the same bound, so an oversized upload cannot be
// streamed past the Content-Length check.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"request_too_large",
				"Request body exceeds maximum size",
				gin.H{"max_bytes": maxSize})
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
