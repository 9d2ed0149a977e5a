package services

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"lecture-rag-backend/models"
)

type fakeEmbedder struct {
	queryCalls int
	docCalls   int
	docTexts   [][]string
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.queryCalls++
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.docCalls++
	f.docTexts = append(f.docTexts, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1, 0}
	}
	return vectors, nil
}

type fakeGenerator struct {
	lastQuery   string
	lastContext []string
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, query string, contextChunks []string) (string, int, error) {
	f.lastQuery = query
	f.lastContext = contextChunks
	return "generated answer", 42, nil
}

type fakeStore struct {
	upserted  []models.DocumentChunk
	retrieved []models.RetrievedChunk
	deleted   bool
}

func (f *fakeStore) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error) {
	return f.retrieved, nil
}

func (f *fakeStore) Count() int { return len(f.upserted) }

func (f *fakeStore) DeleteAll() error {
	f.deleted = true
	f.upserted = nil
	return nil
}

func retrievedChunk(source, text string) models.RetrievedChunk {
	return models.RetrievedChunk{
		DocumentChunk: models.DocumentChunk{Source: source, Text: text},
		Similarity:    0.9,
	}
}

func TestIngestFile(t *testing.T) {
	content := strings.Repeat("Ingest pipelines embed every chunk exactly once. ", 40)
	path := writeTempFile(t, "pipeline.txt", content)

	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	svc := NewRAGService(NewDocumentProcessor(150, 30), embedder, &fakeGenerator{}, store)

	added, err := svc.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if added == 0 {
		t.Fatal("expected chunks to be added")
	}
	if len(store.upserted) != added {
		t.Errorf("stored %d chunks, reported %d", len(store.upserted), added)
	}
	for i, chunk := range store.upserted {
		if len(chunk.Embedding) == 0 {
			t.Errorf("chunk %d stored without embedding", i)
		}
	}
}

func TestIngestFileBatchesEmbedding(t *testing.T) {
	// Enough text for well over one embedding batch of chunks.
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&sb, "Paragraph %d talks about a distinct topic in the course.\n\n", i)
	}
	path := writeTempFile(t, "long.txt", sb.String())

	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	svc := NewRAGService(NewDocumentProcessor(60, 0), embedder, &fakeGenerator{}, store)

	added, err := svc.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if added <= embedBatchSize {
		t.Fatalf("test needs more than %d chunks, got %d", embedBatchSize, added)
	}
	if embedder.docCalls < 2 {
		t.Errorf("expected batched embedding calls, got %d", embedder.docCalls)
	}
	for _, texts := range embedder.docTexts {
		if len(texts) > embedBatchSize {
			t.Errorf("batch of %d exceeds limit %d", len(texts), embedBatchSize)
		}
	}
}

func TestChatWithResults(t *testing.T) {
	embedder := &fakeEmbedder{}
	generator := &fakeGenerator{}
	store := &fakeStore{retrieved: []models.RetrievedChunk{
		retrievedChunk("week2.pdf", "second chunk"),
		retrievedChunk("week1.pdf", "first chunk"),
		retrievedChunk("week2.pdf", "another chunk"),
	}}
	svc := NewRAGService(NewDocumentProcessor(1000, 200), embedder, generator, store)

	resp, err := svc.Chat(context.Background(), "what is covered in week 1?", 3)
	if err != nil {
		t.Fatalf("chat error: %v", err)
	}
	if resp.Answer != "generated answer" {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if want := []string{"week1.pdf", "week2.pdf"}; !reflect.DeepEqual(resp.Sources, want) {
		t.Errorf("sources = %v, want %v", resp.Sources, want)
	}
	if len(generator.lastContext) != 3 {
		t.Errorf("generator got %d context chunks, want 3", len(generator.lastContext))
	}
	if embedder.queryCalls != 1 {
		t.Errorf("query embedded %d times", embedder.queryCalls)
	}
}

func TestChatEmptyStore(t *testing.T) {
	generator := &fakeGenerator{}
	svc := NewRAGService(NewDocumentProcessor(1000, 200), &fakeEmbedder{}, generator, &fakeStore{})

	resp, err := svc.Chat(context.Background(), "anything uploaded?", 3)
	if err != nil {
		t.Fatalf("chat on empty store should not error: %v", err)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("sources should be empty non-nil, got %v", resp.Sources)
	}
	if len(generator.lastContext) != 0 {
		t.Errorf("generator should get no context, got %d", len(generator.lastContext))
	}
}

func TestDeleteAll(t *testing.T) {
	store := &fakeStore{upserted: []models.DocumentChunk{{ID: "doc_a_c0"}}}
	svc := NewRAGService(NewDocumentProcessor(1000, 200), &fakeEmbedder{}, &fakeGenerator{}, store)

	if err := svc.DeleteAll(); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if !store.deleted {
		t.Error("store delete was not called")
	}
	if svc.Count() != 0 {
		t.Errorf("count after delete = %d", svc.Count())
	}
}
