package loader

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"resilience-rag/internal/chunker"
	"resilience-rag/internal/models"
	"resilience-rag/internal/textutil"
)

// loadPDF extracts the text layer page by page, merges paragraphs that run
// across page boundaries, then bounds chunk size with the sentence splitter.
func loadPDF(path string, opts Options) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages := make([]chunker.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, chunker.PageText{
			Text:    textutil.Normalize(pageText),
			PageNum: i,
		})
	}

	blocks := chunker.MergePages(pages, nil)

	var chunks []models.Chunk
	for _, block := range blocks {
		pageLabel := fmt.Sprintf("%d", block.StartPage)
		if block.EndPage != block.StartPage {
			pageLabel = fmt.Sprintf("%d-%d", block.StartPage, block.EndPage)
		}
		// Line wrapping is cosmetic; chunk boundaries come from the
		// sentence splitter alone.
		pretty := textutil.InsertLineBreaks(block.Text, opts.LineLen)
		for _, sub := range chunker.SplitBySentence(pretty, opts.ChunkSize) {
			chunks = append(chunks, models.Chunk{
				Content: sub,
				Metadata: models.ChunkMetadata{
					FileName: opts.FileName,
					DocType:  opts.DocType,
					Page:     pageLabel,
				},
			})
		}
	}

	log.Debug().Int("pages", numPages).Int("chunks", len(chunks)).Str("file", opts.FileName).Msg("Parsed PDF")
	return chunks, nil
}
