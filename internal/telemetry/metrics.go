package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ChunksStored    metric.Int64Counter
	IngestDuration  metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("lecture-rag-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksStored, err := meter.Int64Counter(
		"ingest.chunks.stored",
		metric.WithDescription("Total chunks stored in the vector database"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.duration",
		metric.WithDescription("Document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ChunksStored:    chunksStored,
		IngestDuration:  ingestDuration,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngest records ingestion metrics for one processed document
func (m *Metrics) RecordIngest(chunks int, duration float64) {
	m.ChunksStored.Add(context.Background(), int64(chunks))
	m.IngestDuration.Record(context.Background(), duration)
}
