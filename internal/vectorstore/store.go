package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"lecture-rag-backend/models"

	"github.com/philippgille/chromem-go"
)

// Store wraps a persistent chromem-go collection. Every vector in the
// collection was produced by the embedding model recorded in the collection
// metadata; the store itself never computes embeddings.
type Store struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	metadata   map[string]string
}

const compress = false

// NewStore opens (or creates) the database directory and the collection.
func NewStore(dbPath, collectionName, embeddingModel string) (*Store, error) {
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}

	metadata := map[string]string{"embedding_model": embeddingModel}
	collection, err := db.GetOrCreateCollection(collectionName, metadata, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		name:       collectionName,
		metadata:   metadata,
	}, nil
}

// Upsert stores the chunks under their deterministic IDs. Chunks that share
// an ID with a stored document replace it, so re-uploading a file does not
// duplicate its chunks.
func (s *Store) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		metadata := map[string]string{
			"source":      chunk.Source,
			"chunk_index": strconv.Itoa(chunk.ChunkIndex),
		}
		if chunk.Page > 0 {
			metadata["page"] = strconv.Itoa(chunk.Page)
		}
		docs = append(docs, chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Metadata:  metadata,
			Embedding: chunk.Embedding,
		})
	}

	s.mu.RLock()
	collection := s.collection
	s.mu.RUnlock()

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity. An empty
// collection yields an empty result, not an error, and k is clamped to the
// number of stored chunks.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error) {
	s.mu.RLock()
	collection := s.collection
	s.mu.RUnlock()

	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	retrieved := make([]models.RetrievedChunk, 0, len(results))
	for _, result := range results {
		chunk := models.DocumentChunk{
			ID:       result.ID,
			Text:     result.Content,
			Source:   result.Metadata["source"],
			Metadata: result.Metadata,
		}
		if idx, err := strconv.Atoi(result.Metadata["chunk_index"]); err == nil {
			chunk.ChunkIndex = idx
		}
		if page, err := strconv.Atoi(result.Metadata["page"]); err == nil {
			chunk.Page = page
		}
		retrieved = append(retrieved, models.RetrievedChunk{
			DocumentChunk: chunk,
			Similarity:    result.Similarity,
		})
	}
	return retrieved, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

// DeleteAll drops the collection and immediately recreates it empty, so
// uploads keep working without a restart. Irreversible.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}

	collection, err := s.db.GetOrCreateCollection(s.name, s.metadata, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	s.collection = collection
	return nil
}
