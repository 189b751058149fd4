package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/llmservice"
	"resilience-rag/internal/models"
	"resilience-rag/internal/vectorstore"
)

// FanOut runs an independent top-K search on every index and concatenates
// the result blocks in index order. There is no cross-index re-ranking or
// de-duplication: a chunk present in two files appears twice, and callers
// needing a deduplicated view post-process the result.
func FanOut(ctx context.Context, indexes []*vectorstore.Index, query string, topK int) ([]vectorstore.ScoredChunk, error) {
	var all []vectorstore.ScoredChunk
	for _, ix := range indexes {
		hits, err := ix.Search(ctx, query, topK)
		if err != nil {
			return nil, err
		}
		all = append(all, hits...)
	}
	return all, nil
}

// Aggregator answers questions over one or more file indexes, plus
// conversational memory in multi-source mode.
type Aggregator struct {
	completer llmservice.Completer
}

func NewAggregator(completer llmservice.Completer) *Aggregator {
	return &Aggregator{completer: completer}
}

// Answer composes the facet query, fans it out over the given indexes and
// asks the model for an answer grounded on the retrieved chunks.
func (a *Aggregator) Answer(ctx context.Context, indexes []*vectorstore.Index, facets models.Facets, custom []models.CustomField, question, language string, topK int) (models.PromptResponse, error) {
	if question == "" {
		return models.PromptResponse{}, apperr.Validation("question is required")
	}
	if len(indexes) == 0 {
		return models.PromptResponse{}, apperr.Validation("no built indexes to query")
	}

	composed := ComposeQuery(facets, custom, question)
	hits, err := FanOut(ctx, indexes, composed, topK)
	if err != nil {
		return models.PromptResponse{}, err
	}

	var b strings.Builder
	docs := make([]models.Chunk, len(hits))
	for i, h := range hits {
		docs[i] = h.Chunk
		fmt.Fprintf(&b, "---- Doc #%d (%s, %s) ----\n%s\n\n", i+1, h.Metadata.FileName, h.Metadata.CitationLabel(), h.Content)
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, models.LanguageDirective(language), b.String(), question)
	answer, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return models.PromptResponse{}, apperr.Provider(err, "completion failed")
	}

	log.Debug().Int("indexes", len(indexes)).Int("docs", len(docs)).Msg("Answered query")
	return models.PromptResponse{Answer: answer, UsedPrompt: prompt, Docs: docs}, nil
}

// AnswerMultiSource answers from conversation memory and file indexes
// together. Memory chunks are unioned ahead of the file results so the
// model sees the dialogue context first; the two sources stay in separate
// stores and are only combined here, in the prompt.
func (a *Aggregator) AnswerMultiSource(ctx context.Context, indexes []*vectorstore.Index, memoryChunks []models.Chunk, question string, topK int) (models.PromptResponse, error) {
	if question == "" {
		return models.PromptResponse{}, apperr.Validation("question is required")
	}

	fileHits, err := FanOut(ctx, indexes, question, topK)
	if err != nil {
		return models.PromptResponse{}, err
	}

	docs := make([]models.Chunk, 0, len(memoryChunks)+len(fileHits))
	docs = append(docs, memoryChunks...)
	for _, h := range fileHits {
		docs = append(docs, h.Chunk)
	}

	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "--- Doc #%d ---\n", i+1)
		if d.Metadata.Role != "" {
			fmt.Fprintf(&b, "Role: %s\n", d.Metadata.Role)
		}
		b.WriteString(d.Content)
		b.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(models.MultiSourcePromptTemplate, strings.TrimRight(b.String(), "\n"), question)
	answer, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return models.PromptResponse{}, apperr.Provider(err, "completion failed")
	}

	log.Debug().Int("memoryDocs", len(memoryChunks)).Int("fileDocs", len(fileHits)).Msg("Answered multi-source query")
	return models.PromptResponse{Answer: answer, UsedPrompt: prompt, Docs: docs}, nil
}
