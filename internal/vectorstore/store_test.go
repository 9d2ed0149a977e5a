package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lecture-rag-backend/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "lecture_documents", "text-embedding-004")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func testChunk(id, text, source string, embedding []float32) models.DocumentChunk {
	return models.DocumentChunk{
		ID:        id,
		Text:      text,
		Source:    source,
		Embedding: embedding,
	}
}

func TestUpsertAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []models.DocumentChunk{
		testChunk("doc_a_c0", "graphs", "a.txt", []float32{1, 0, 0}),
		testChunk("doc_a_c1", "trees", "a.txt", []float32{0, 1, 0}),
		testChunk("doc_b_c0", "sorting", "b.txt", []float32{0, 0, 1}),
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := store.Count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
}

func TestUpsertSameIDsIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []models.DocumentChunk{
		testChunk("doc_a_c0", "graphs", "a.txt", []float32{1, 0, 0}),
		testChunk("doc_a_c1", "trees", "a.txt", []float32{0, 1, 0}),
	}
	for i := 0; i < 3; i++ {
		if err := store.Upsert(ctx, chunks); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	if got := store.Count(); got != 2 {
		t.Fatalf("count after repeated upserts = %d, want 2", got)
	}
}

func TestSearchReturnsNearest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []models.DocumentChunk{
		testChunk("doc_a_c0", "graphs", "a.txt", []float32{1, 0, 0}),
		testChunk("doc_a_c1", "trees", "a.txt", []float32{0, 1, 0}),
		testChunk("doc_b_c0", "sorting", "b.txt", []float32{0, 0, 1}),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := store.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "doc_a_c0" {
		t.Errorf("nearest = %s, want doc_a_c0", results[0].ID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not ordered by similarity")
	}
	if results[0].Source != "a.txt" {
		t.Errorf("source metadata lost: %q", results[0].Source)
	}
}

func TestSearchEmptyStore(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("search on empty store should not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results from empty store", len(results))
	}
}

func TestSearchClampsK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []models.DocumentChunk{
		testChunk("doc_a_c0", "graphs", "a.txt", []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("search with k beyond count: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestDeleteAllThenReuse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []models.DocumentChunk{
		testChunk("doc_a_c0", "graphs", "a.txt", []float32{1, 0, 0}),
		testChunk("doc_a_c1", "trees", "a.txt", []float32{0, 1, 0}),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.DeleteAll(); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if got := store.Count(); got != 0 {
		t.Fatalf("count after delete = %d, want 0", got)
	}

	// The recreated collection keeps accepting uploads without a restart.
	err = store.Upsert(ctx, []models.DocumentChunk{
		testChunk("doc_b_c0", "sorting", "b.txt", []float32{0, 0, 1}),
	})
	if err != nil {
		t.Fatalf("upsert after delete: %v", err)
	}
	if got := store.Count(); got != 1 {
		t.Fatalf("count after re-upsert = %d, want 1", got)
	}
}

func TestConcurrentUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const writers = 4
	const perWriter = 10

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			chunks := make([]models.DocumentChunk, perWriter)
			for i := range chunks {
				chunks[i] = testChunk(
					fmt.Sprintf("doc_file%d_c%d", w, i),
					fmt.Sprintf("chunk %d of file %d", i, w),
					fmt.Sprintf("file%d.txt", w),
					[]float32{float32(w + 1), float32(i + 1), 1},
				)
			}
			errs <- store.Upsert(ctx, chunks)
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert: %v", err)
		}
	}

	if got := store.Count(); got != writers*perWriter {
		t.Fatalf("count = %d, want %d", got, writers*perWriter)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, "lecture_documents", "text-embedding-004")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = store.Upsert(ctx, []models.DocumentChunk{
		testChunk("doc_a_c0", "graphs", "a.txt", []float32{1, 0, 0}),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	reopened, err := NewStore(dir, "lecture_documents", "text-embedding-004")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Count(); got != 1 {
		t.Fatalf("count after reopen = %d, want 1", got)
	}
}
