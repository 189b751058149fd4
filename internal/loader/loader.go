// Package loader turns an uploaded file into the uniform chunk sequence the
// index builder consumes. Dispatch is by file extension; tabular formats
// additionally require a previously saved column schema.
package loader

import (
	"path/filepath"
	"strings"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/config"
	"resilience-rag/internal/models"
)

// Options carries per-file context and chunking knobs into a load.
type Options struct {
	FileName string
	DocType  string
	Schema   []models.ColumnSpec

	ChunkSize     int
	LineLen       int
	WindowSize    int
	WindowOverlap int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = config.DefaultChunkSize
	}
	if o.LineLen <= 0 {
		o.LineLen = config.DefaultLineLen
	}
	if o.WindowSize <= 0 {
		o.WindowSize = config.DefaultWindowSize
	}
	if o.WindowOverlap <= 0 {
		o.WindowOverlap = config.DefaultWindowOverlap
	}
	if o.DocType == "" {
		o.DocType = models.DocTypeOtherResource
	}
	return o
}

// Load parses the file at path into chunks. Unsupported extensions are a
// validation error with no partial output.
func Load(path string, opts Options) ([]models.Chunk, error) {
	opts = opts.withDefaults()
	if opts.FileName == "" {
		opts.FileName = filepath.Base(path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return loadPDF(path, opts)
	case ".csv", ".xlsx", ".xls":
		return loadTable(path, ext, opts)
	case ".txt":
		return loadText(path, opts)
	case ".docx":
		return loadDOCX(path, opts)
	default:
		return nil, apperr.Validation("unsupported file extension: %s", ext)
	}
}

// IsTabular reports whether ext is a column-schema format.
func IsTabular(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}
