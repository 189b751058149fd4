package loader

import (
	"os"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"resilience-rag/internal/chunker"
	"resilience-rag/internal/models"
	"resilience-rag/internal/textutil"
)

// loadText reads a UTF-8 file as a single chunk, falling back to sliding
// windows when it exceeds the window size.
func loadText(path string, opts Options) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return textChunks(string(data), opts), nil
}

// loadDOCX extracts the document body and treats it like plain text.
func loadDOCX(path string, opts Options) ([]models.Chunk, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	// The body arrives with WordprocessingML markup still in it.
	content = textutil.UnifyHyperlinks(content)
	return textChunks(content, opts), nil
}

func textChunks(raw string, opts Options) []models.Chunk {
	text := textutil.Normalize(raw)
	if text == "" {
		return nil
	}

	meta := models.ChunkMetadata{
		FileName: opts.FileName,
		DocType:  opts.DocType,
		Page:     "1",
	}
	if len([]rune(text)) <= opts.WindowSize {
		return []models.Chunk{{Content: text, Metadata: meta}}
	}

	windows := chunker.SlidingWindow(text, opts.WindowSize, opts.WindowOverlap)
	chunks := make([]models.Chunk, 0, len(windows))
	for _, w := range windows {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{Content: w, Metadata: meta})
	}
	return chunks
}
