package services

import (
	"context"
	"fmt"
	"sort"

	"lecture-rag-backend/internal/logger"
	"lecture-rag-backend/models"
)

// Embedder maps text to fixed-length vectors. Both methods must use the same
// underlying model; mixing models across stored chunks silently degrades
// retrieval quality.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerGenerator produces an answer from a question plus retrieved context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, query string, contextChunks []string) (answer string, tokens int, err error)
}

// VectorStore persists chunks and answers nearest-neighbor queries.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []models.DocumentChunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error)
	Count() int
	DeleteAll() error
}

// Gemini's batch embedding endpoint accepts at most 100 contents per call.
const embedBatchSize = 100

// RAGService wires the ingestion and retrieval pipelines together.
type RAGService struct {
	processor *DocumentProcessor
	embedder  Embedder
	generator AnswerGenerator
	store     VectorStore
}

func NewRAGService(processor *DocumentProcessor, embedder Embedder, generator AnswerGenerator, store VectorStore) *RAGService {
	return &RAGService{
		processor: processor,
		embedder:  embedder,
		generator: generator,
		store:     store,
	}
}

// IngestFile runs the full ingestion pipeline for one file: extract, split,
// embed, upsert. Returns the number of chunks stored. There is no rollback;
// a failure mid-way can leave part of the file's chunks stored.
func (s *RAGService) IngestFile(ctx context.Context, filePath string) (int, error) {
	chunks, err := s.processor.Process(filePath)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		if err := s.store.Upsert(ctx, batch); err != nil {
			return 0, fmt.Errorf("failed to store chunks: %w", err)
		}
	}

	logger.Info("Ingested document", "chunks", len(chunks))
	return len(chunks), nil
}

// Chat answers a question from the k nearest stored chunks. An empty store
// is not an error: the generator is called with no context and instructed to
// report the missing material.
func (s *RAGService) Chat(ctx context.Context, query string, k int) (*models.ChatResponse, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	retrieved, err := s.store.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	contexts := make([]string, len(retrieved))
	for i, chunk := range retrieved {
		contexts[i] = chunk.Text
	}

	answer, tokens, err := s.generator.GenerateAnswer(ctx, query, contexts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Generated answer", "tokens", tokens, "context_chunks", len(retrieved))

	return &models.ChatResponse{
		Answer:  answer,
		Sources: sourceNames(retrieved),
	}, nil
}

// Count returns the number of stored chunks.
func (s *RAGService) Count() int {
	return s.store.Count()
}

// DeleteAll drops every stored chunk.
func (s *RAGService) DeleteAll() error {
	return s.store.DeleteAll()
}

// sourceNames returns the sorted, deduplicated source filenames of the
// retrieved chunks. Always non-nil so the JSON response carries [].
func sourceNames(retrieved []models.RetrievedChunk) []string {
	seen := make(map[string]bool)
	sources := make([]string, 0, len(retrieved))
	for _, chunk := range retrieved {
		if chunk.Source == "" || seen[chunk.Source] {
			continue
		}
		seen[chunk.Source] = true
		sources = append(sources, chunk.Source)
	}
	sort.Strings(sources)
	return sources
}
