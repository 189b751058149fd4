// Package registry owns file metadata, raw-file lifecycle and the lazily
// built vector index of every uploaded file, partitioned by session.
package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/config"
	"resilience-rag/internal/loader"
	"resilience-rag/internal/models"
	"resilience-rag/internal/vectorstore"
)

// FileRecord tracks one uploaded file. The raw file and the index are
// mutually exclusive storage states: LocalPath is cleared the moment a
// build succeeds, so at most one of (LocalPath, Index) is ever populated.
type FileRecord struct {
	FileKey      string
	FileName     string
	FileType     string
	DocType      string
	Tags         []string
	LocalPath    string
	ColumnSchema []models.ColumnSpec
	StoreBuilt   bool
	Index        *vectorstore.Index
	CreatedAt    time.Time
	LastBuildAt  *time.Time

	// buildMu serializes the load -> build -> attach -> unlink sequence
	// and any delete against it.
	buildMu sync.Mutex
}

// FileInfo is the listing view of a record, without the index itself.
type FileInfo struct {
	FileKey      string              `json:"fileKey"`
	FileName     string              `json:"fileName"`
	FileType     string              `json:"fileType"`
	DocType      string              `json:"docType"`
	Tags         []string            `json:"tags"`
	StoreBuilt   bool                `json:"storeBuilt"`
	ColumnSchema []models.ColumnSpec `json:"columnSchema,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	LastBuildAt  *time.Time          `json:"lastBuildAt,omitempty"`
}

// MemoryWiper is anything holding per-session state that must vanish with
// the session (conversational memory, workflow state).
type MemoryWiper interface {
	Clear(sessionID string)
}

// Registry is the process-wide, session-partitioned file store. It starts
// empty and holds everything in memory except the raw uploaded bytes.
type Registry struct {
	mu        sync.RWMutex
	uploadDir string
	embedder  embeddings.Embedder
	ragCfg    config.RAGConfig
	sessions  map[string]map[string]*FileRecord
	wipers    []MemoryWiper
}

// New creates a registry writing raw uploads under uploadDir.
func New(uploadDir string, embedder embeddings.Embedder, ragCfg config.RAGConfig, wipers ...MemoryWiper) (*Registry, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}
	return &Registry{
		uploadDir: uploadDir,
		embedder:  embedder,
		ragCfg:    ragCfg,
		sessions:  make(map[string]map[string]*FileRecord),
		wipers:    wipers,
	}, nil
}

// Upload stores the raw bytes and registers the file. A second file with
// the same name in the same session is a conflict, not an overwrite.
func (r *Registry) Upload(sessionID string, src io.Reader, fileName string, tags []string, docType string) (string, error) {
	if sessionID == "" || fileName == "" {
		return "", apperr.Validation("sessionId and fileName are required")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if docType == "" {
		docType = models.DocTypeOtherResource
	}

	r.mu.Lock()
	files := r.sessionFiles(sessionID)
	for _, rec := range files {
		if rec.FileName == fileName {
			r.mu.Unlock()
			return "", apperr.Conflict("file name %q already exists", fileName)
		}
	}

	fileKey := uuid.NewString()
	localPath := filepath.Join(r.uploadDir, fileKey+ext)
	rec := &FileRecord{
		FileKey:   fileKey,
		FileName:  fileName,
		FileType:  ext,
		DocType:   docType,
		Tags:      tags,
		LocalPath: localPath,
		CreatedAt: time.Now(),
	}
	files[fileKey] = rec
	r.mu.Unlock()

	f, err := os.Create(localPath)
	if err != nil {
		r.removeRecord(sessionID, fileKey)
		return "", err
	}
	_, err = io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(localPath)
		r.removeRecord(sessionID, fileKey)
		return "", err
	}

	log.Debug().Str("session", sessionID).Str("fileKey", fileKey).Str("file", fileName).Msg("Registered upload")
	return fileKey, nil
}

// List returns the session's files sorted by creation time.
func (r *Registry) List(sessionID string) []FileInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	files := r.sessions[sessionID]
	out := make([]FileInfo, 0, len(files))
	for _, rec := range files {
		out = append(out, rec.info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].FileKey < out[j].FileKey
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// UpdateInfo renames or retags a file. Empty arguments leave the
// corresponding field unchanged.
func (r *Registry) UpdateInfo(sessionID, fileKey, newName string, tags []string, docType string) (FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.record(sessionID, fileKey)
	if err != nil {
		return FileInfo{}, err
	}
	if newName != "" {
		rec.FileName = newName
	}
	if tags != nil {
		rec.Tags = tags
	}
	if docType != "" {
		rec.DocType = docType
	}
	return rec.info(), nil
}

// MapColumns saves the column schema for a tabular file and invalidates any
// previously built index: a schema change always forces a rebuild.
func (r *Registry) MapColumns(sessionID, fileKey string, schema []models.ColumnSpec) error {
	if len(schema) == 0 {
		return apperr.Validation("columnSchema is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.record(sessionID, fileKey)
	if err != nil {
		return err
	}
	if !loader.IsTabular(rec.FileType) {
		return apperr.Validation("not a CSV/XLSX file, cannot map columns")
	}
	rec.ColumnSchema = schema
	rec.StoreBuilt = false
	rec.Index = nil
	return nil
}

// GetColumns reads the header row of a tabular file's raw bytes.
func (r *Registry) GetColumns(sessionID, fileKey string) ([]string, error) {
	r.mu.RLock()
	rec, err := r.record(sessionID, fileKey)
	if err != nil {
		r.mu.RUnlock()
		return nil, err
	}
	if !loader.IsTabular(rec.FileType) {
		r.mu.RUnlock()
		return nil, apperr.Validation("not a CSV/XLSX file, cannot get columns")
	}
	localPath := rec.LocalPath
	r.mu.RUnlock()

	if localPath == "" {
		return nil, apperr.Validation("raw file already consumed by a build; re-upload to inspect columns")
	}
	return loader.ReadColumns(localPath)
}

// BuildStore loads the raw file, builds a fresh index, attaches it and
// deletes the raw bytes. Builds on the same file serialize; a failed build
// leaves the record exactly as it was, so the call is safely retryable.
func (r *Registry) BuildStore(ctx context.Context, sessionID, fileKey string) (int, error) {
	r.mu.RLock()
	rec, err := r.record(sessionID, fileKey)
	r.mu.RUnlock()
	if err != nil {
		return 0, err
	}

	rec.buildMu.Lock()
	defer rec.buildMu.Unlock()

	// Re-read under the registry lock: a delete may have won the race
	// while we waited for the build lock.
	r.mu.RLock()
	_, err = r.record(sessionID, fileKey)
	localPath := rec.LocalPath
	opts := loader.Options{
		FileName:      rec.FileName,
		DocType:       rec.DocType,
		Schema:        rec.ColumnSchema,
		ChunkSize:     r.ragCfg.ChunkSize,
		LineLen:       r.ragCfg.LineLen,
		WindowSize:    r.ragCfg.WindowSize,
		WindowOverlap: r.ragCfg.WindowOverlap,
	}
	r.mu.RUnlock()
	if err != nil {
		return 0, err
	}
	if localPath == "" {
		return 0, apperr.Validation("raw file already consumed; re-upload %s to rebuild", rec.FileName)
	}

	chunks, err := loader.Load(localPath, opts)
	if err != nil {
		return 0, err
	}
	index, err := vectorstore.Build(ctx, r.embedder, chunks)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	r.mu.Lock()
	rec.Index = index
	rec.StoreBuilt = true
	rec.LastBuildAt = &now
	rec.LocalPath = ""
	r.mu.Unlock()

	// Raw bytes and index are mutually exclusive: the upload is consumed
	// on success only.
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", localPath).Msg("Failed to remove consumed upload")
	}

	log.Info().Str("session", sessionID).Str("fileKey", fileKey).Int("chunks", len(chunks)).Msg("Built vector store")
	return len(chunks), nil
}

// Delete removes the raw bytes (if any) and the record. Deleting an absent
// file is a no-op so retries and teardown sweeps stay simple.
func (r *Registry) Delete(sessionID, fileKey string) error {
	r.mu.RLock()
	rec, err := r.record(sessionID, fileKey)
	r.mu.RUnlock()
	if err != nil {
		return nil
	}

	// Wait out any in-flight build so we never unlink mid-read.
	rec.buildMu.Lock()
	defer rec.buildMu.Unlock()

	r.mu.Lock()
	if _, stillThere := r.sessions[sessionID][fileKey]; !stillThere {
		r.mu.Unlock()
		return nil
	}
	localPath := rec.LocalPath
	delete(r.sessions[sessionID], fileKey)
	r.mu.Unlock()

	if localPath != "" {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	log.Debug().Str("session", sessionID).Str("fileKey", fileKey).Msg("Deleted file")
	return nil
}

// GetIndex returns the file's index. Absent covers both a missing file and
// an existing but unbuilt one; use Exists when the distinction matters.
func (r *Registry) GetIndex(sessionID, fileKey string) (*vectorstore.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.record(sessionID, fileKey)
	if err != nil || !rec.StoreBuilt || rec.Index == nil {
		return nil, false
	}
	return rec.Index, true
}

// Exists reports whether the file key is registered in the session.
func (r *Registry) Exists(sessionID, fileKey string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := r.record(sessionID, fileKey)
	return err == nil
}

// ListByDocType returns file keys of the given docType in creation order.
// With builtOnly set, files without an index are skipped.
func (r *Registry) ListByDocType(sessionID, docType string, builtOnly bool) []string {
	var keys []string
	for _, info := range r.List(sessionID) {
		if docType != "" && info.DocType != docType {
			continue
		}
		if builtOnly && !info.StoreBuilt {
			continue
		}
		keys = append(keys, info.FileKey)
	}
	return keys
}

// IndexesByKeys resolves the given keys to built indexes, preserving key
// order and skipping unbuilt or unknown files. An empty key list selects
// every built index in the session, in creation order.
func (r *Registry) IndexesByKeys(sessionID string, fileKeys []string) []*vectorstore.Index {
	if len(fileKeys) == 0 {
		for _, info := range r.List(sessionID) {
			if info.StoreBuilt {
				fileKeys = append(fileKeys, info.FileKey)
			}
		}
	}
	var indexes []*vectorstore.Index
	for _, fk := range fileKeys {
		if ix, ok := r.GetIndex(sessionID, fk); ok {
			indexes = append(indexes, ix)
		}
	}
	return indexes
}

// DeleteSession removes every file record and raw upload of the session,
// then wipes the attached per-session stores. In-flight builds are waited
// for, not interleaved with. Deleting an unknown session is a no-op.
func (r *Registry) DeleteSession(sessionID string) error {
	r.mu.Lock()
	files := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	for _, rec := range files {
		rec.buildMu.Lock()
		if rec.LocalPath != "" {
			if err := os.Remove(rec.LocalPath); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Str("path", rec.LocalPath).Msg("Failed to remove upload during session delete")
			}
		}
		rec.Index = nil
		rec.buildMu.Unlock()
	}
	for _, w := range r.wipers {
		w.Clear(sessionID)
	}

	log.Info().Str("session", sessionID).Int("files", len(files)).Msg("Deleted session")
	return nil
}

// record looks a file up; callers hold r.mu.
func (r *Registry) record(sessionID, fileKey string) (*FileRecord, error) {
	files, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperr.NotFound("session %s not found", sessionID)
	}
	rec, ok := files[fileKey]
	if !ok {
		return nil, apperr.NotFound("file %s not found", fileKey)
	}
	return rec, nil
}

// sessionFiles returns (creating if needed) the session map; callers hold r.mu.
func (r *Registry) sessionFiles(sessionID string) map[string]*FileRecord {
	files, ok := r.sessions[sessionID]
	if !ok {
		files = make(map[string]*FileRecord)
		r.sessions[sessionID] = files
	}
	return files
}

func (r *Registry) removeRecord(sessionID, fileKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if files, ok := r.sessions[sessionID]; ok {
		delete(files, fileKey)
	}
}

func (rec *FileRecord) info() FileInfo {
	return FileInfo{
		FileKey:      rec.FileKey,
		FileName:     rec.FileName,
		FileType:     rec.FileType,
		DocType:      rec.DocType,
		Tags:         rec.Tags,
		StoreBuilt:   rec.StoreBuilt,
		ColumnSchema: rec.ColumnSchema,
		CreatedAt:    rec.CreatedAt,
		LastBuildAt:  rec.LastBuildAt,
	}
}
