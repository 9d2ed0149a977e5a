package models

// DocumentChunk is a contiguous span of source text stored and retrieved as a
// unit. Chunks are created during ingestion and are immutable afterwards;
// the only way to remove them is the delete-all operation.
type DocumentChunk struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Source     string            `json:"source"`
	ChunkIndex int               `json:"chunk_index"`
	Page       int               `json:"page,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float32         `json:"embedding,omitempty"`
}

// RetrievedChunk is a chunk returned by a similarity search together with its
// cosine similarity against the query embedding.
type RetrievedChunk struct {
	DocumentChunk
	Similarity float32 `json:"similarity"`
}
