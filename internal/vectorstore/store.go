// Package vectorstore builds and queries per-file vector indexes on top of
// chromem-go. An Index is owned by exactly one file record and is only ever
// replaced wholesale by a rebuild, never mutated in place.
package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/models"
)

const collectionName = "chunks"

// Index is an embedding-backed similarity index over one file's chunks.
// The chunk list is retained alongside the collection so search results
// carry full citation metadata, not just the flattened document text.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	chunks     []models.Chunk
}

// ScoredChunk is one search hit with its cosine similarity.
type ScoredChunk struct {
	models.Chunk
	Similarity float32 `json:"similarity"`
}

// Build embeds every chunk and returns a fresh in-memory Index. It mutates
// nothing it is given: attaching the result to a file record is the
// caller's job. An embedding failure aborts the build with a provider error
// and no Index.
func Build(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, apperr.Validation("no chunks to index")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, apperr.Provider(err, "embedding chunks failed")
	}

	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, queryEmbeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   c.Content,
			Embedding: vectors[i],
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	log.Debug().Int("chunks", len(chunks)).Msg("Built vector index")
	return &Index{db: db, collection: collection, chunks: chunks}, nil
}

// Search runs a top-K similarity query and returns hits in the collection's
// own ranking order. topK is clamped to the index size.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	if n := ix.collection.Count(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, apperr.Provider(err, "similarity search failed")
	}

	hits := make([]ScoredChunk, 0, len(results))
	for _, r := range results {
		i, err := strconv.Atoi(r.ID)
		if err != nil || i < 0 || i >= len(ix.chunks) {
			continue
		}
		hits = append(hits, ScoredChunk{Chunk: ix.chunks[i], Similarity: r.Similarity})
	}
	return hits, nil
}

// Size reports the number of indexed chunks.
func (ix *Index) Size() int {
	return len(ix.chunks)
}

// queryEmbeddingFunc adapts the langchaingo embedder to chromem's
// query-time embedding hook.
func queryEmbeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
}
