package vectorstore

import (
	"context"
	"testing"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/embedding"
	"resilience-rag/internal/models"
)

func chunksFor(texts ...string) []models.Chunk {
	out := make([]models.Chunk, len(texts))
	for i, t := range texts {
		out[i] = models.Chunk{
			Content:  t,
			Metadata: models.ChunkMetadata{FileName: "test.txt", DocType: models.DocTypeOtherResource, Page: "1"},
		}
	}
	return out
}

func TestBuildAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(32)
	chunks := chunksFor(
		"flood mitigation strategies for coastal towns",
		"wildfire evacuation planning",
		"seismic retrofit of masonry buildings",
	)

	ix, err := Build(ctx, embedder, chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Size() != 3 {
		t.Errorf("Size = %d, want 3", ix.Size())
	}

	hits, err := ix.Search(ctx, "flood mitigation strategies for coastal towns", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Exact text match must rank first with the deterministic embedder.
	if hits[0].Content != chunks[0].Content {
		t.Errorf("top hit = %q, want the flood chunk", hits[0].Content)
	}
	if hits[0].Metadata.FileName != "test.txt" {
		t.Errorf("hit lost its metadata: %+v", hits[0].Metadata)
	}
	if hits[0].Similarity < hits[1].Similarity {
		t.Error("hits not in descending similarity order")
	}
}

func TestSearchClampsTopK(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, embedding.NewMockEmbedder(16), chunksFor("only one chunk here"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	hits, err := ix.Search(ctx, "anything", 50)
	if err != nil {
		t.Fatalf("Search with oversized topK: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1", len(hits))
	}
}

func TestBuildEmptyChunks(t *testing.T) {
	_, err := Build(context.Background(), embedding.NewMockEmbedder(16), nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
