package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/models"
	"resilience-rag/internal/textutil"
)

// loadTable turns each row into exactly one chunk whose content lists every
// schema column as "[col - info/meta]: value". A missing schema is a
// validation error, never an empty result.
func loadTable(path, ext string, opts Options) ([]models.Chunk, error) {
	if len(opts.Schema) == 0 {
		return nil, apperr.Validation("file %s needs a column schema before building (mapColumns)", opts.FileName)
	}

	rows, err := parseRows(path, ext)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(rows))
	for rowIdx, row := range rows {
		annotations := make([]models.ColumnAnnotation, 0, len(opts.Schema))
		var content strings.Builder
		for _, spec := range opts.Schema {
			ann := models.ColumnAnnotation{
				ColName:      spec.ColumnName,
				InfoCategory: spec.InfoCategory,
				MetaCategory: spec.MetaCategory,
				CellValue:    textutil.SanitizeCellValue(row[spec.ColumnName]),
			}
			annotations = append(annotations, ann)
			fmt.Fprintf(&content, "[%s - %s/%s]: %s\n", ann.ColName, ann.InfoCategory, ann.MetaCategory, ann.CellValue)
		}
		idx := rowIdx
		chunks = append(chunks, models.Chunk{
			Content: content.String(),
			Metadata: models.ChunkMetadata{
				FileName: opts.FileName,
				DocType:  opts.DocType,
				RowIndex: &idx,
				Columns:  annotations,
			},
		})
	}

	log.Debug().Int("rows", len(rows)).Str("file", opts.FileName).Msg("Parsed table")
	return chunks, nil
}

// ReadColumns returns the header row of a tabular file.
func ReadColumns(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsTabular(ext) {
		return nil, apperr.Validation("not a CSV/XLSX file, cannot read columns")
	}
	headers, _, err := parseTable(path, ext)
	return headers, err
}

// parseRows parses the file into one map per data row, keyed by header.
func parseRows(path, ext string) ([]map[string]string, error) {
	_, rows, err := parseTable(path, ext)
	return rows, err
}

func parseTable(path, ext string) ([]string, []map[string]string, error) {
	var records [][]string
	var err error
	switch ext {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xls":
		records, err = readXLSX(path)
	default:
		return nil, nil, apperr.Validation("unsupported table extension: %s", ext)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// readXLSX reads the first worksheet only.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}
