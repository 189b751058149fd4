package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a deterministic embedder for tests: the same text always
// maps to the same unit-length vector, without any network call.
type MockEmbedder struct {
	Dimensions int
}

// NewMockEmbedder returns a mock embedder with the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEmbedder{Dimensions: dimensions}
}

// EmbedQuery derives a vector from the text hash, normalized to unit length
// so cosine similarity behaves.
func (e *MockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := float64(h.Sum32())

	emb := make([]float32, e.Dimensions)
	var sum float64
	for i := range emb {
		v := math.Sin(seed*float64(i+1)) * 0.1
		emb[i] = float32(v)
		sum += v * v
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb, nil
}

// EmbedDocuments calls EmbedQuery per text.
func (e *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		emb, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
