package middleware

import (
	"time"

	"lecture-rag-backend/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware provides OpenTelemetry tracing for Gin
func TracingMiddleware() gin.HandlerFunc {
	return otelgin.Middleware("lecture-rag-backend")
}

// EnrichTrace enriches traces with custom attributes
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		span.SetAttributes(
			attribute.String("http.client_ip", c.ClientIP()),
			attribute.String("request.id", GetRequestID(c)),
		)

		c.Next()

		span.SetAttributes(
			attribute.Int("http.response.status_code", c.Writer.Status()),
			attribute.Int("http.response.size", c.Writer.Size()),
		)
	}
}

// MetricsMiddleware records request metrics
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := "success"
		if c.Writer.Status() >= 400 {
			status = "error"
		}

		metrics.RecordRequest(
			c.Request.Method,
			c.FullPath(),
			status,
			duration,
		)
	}
}
