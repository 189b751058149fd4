// Package memory keeps a per-session conversational vector store, separate
// from the file indexes. It grows incrementally as messages arrive and is
// wiped whole when the session is deleted.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/models"
)

// Store maps session IDs to their conversation index. Zero residue remains
// for a session after Clear.
type Store struct {
	mu       sync.RWMutex
	embedder embeddings.Embedder
	sessions map[string]*sessionMemory
}

type sessionMemory struct {
	collection *chromem.Collection
	chunks     []models.Chunk
}

func NewStore(embedder embeddings.Embedder) *Store {
	return &Store{
		embedder: embedder,
		sessions: make(map[string]*sessionMemory),
	}
}

// Append embeds one message and adds it to the session's conversation
// index, creating the index on first use.
func (s *Store) Append(ctx context.Context, sessionID, role, text string) error {
	if sessionID == "" || text == "" {
		return apperr.Validation("sessionId and text are required")
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return apperr.Provider(err, "embedding conversation message failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		db := chromem.NewDB()
		collection, err := db.GetOrCreateCollection("conversation", nil, s.queryFunc())
		if err != nil {
			return err
		}
		sess = &sessionMemory{collection: collection}
		s.sessions[sessionID] = sess
	}

	id := strconv.Itoa(len(sess.chunks))
	err = sess.collection.AddDocuments(ctx, []chromem.Document{{
		ID:        id,
		Content:   text,
		Embedding: vector,
	}}, 1)
	if err != nil {
		return err
	}
	sess.chunks = append(sess.chunks, models.Chunk{
		Content:  text,
		Metadata: models.ChunkMetadata{FileName: "conversation", Role: role},
	})
	return nil
}

// Search returns the topK most similar conversation chunks for the session,
// or nothing when the session has no memory yet.
func (s *Store) Search(ctx context.Context, sessionID, query string, topK int) ([]models.Chunk, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if topK <= 0 {
		topK = 20
	}
	if n := sess.collection.Count(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := sess.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, apperr.Provider(err, "conversation search failed")
	}
	chunks := make([]models.Chunk, 0, len(results))
	for _, r := range results {
		i, err := strconv.Atoi(r.ID)
		if err != nil || i < 0 || i >= len(sess.chunks) {
			continue
		}
		chunks = append(chunks, sess.chunks[i])
	}
	return chunks, nil
}

// Clear drops every conversation entry for the session. Clearing an absent
// session is a no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		log.Debug().Str("session", sessionID).Msg("Cleared conversation memory")
	}
}

// Has reports whether the session currently holds any memory.
func (s *Store) Has(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok
}

func (s *Store) queryFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}
