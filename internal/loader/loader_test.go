package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

var riskSchema = []models.ColumnSpec{
	{ColumnName: "Name", InfoCategory: "project", MetaCategory: "reference"},
	{ColumnName: "Risk", InfoCategory: "disaster", MetaCategory: "input condition"},
}

func TestLoadCSVWithSchema(t *testing.T) {
	path := writeFile(t, "data.csv", "Name,Risk\nSeawall,Storm surge\nLevee,River flood\n")
	chunks, err := Load(path, Options{FileName: "data.csv", Schema: riskSchema})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want one per row", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "[Risk - disaster/input condition]: Storm surge") {
		t.Errorf("row content missing annotated column: %q", chunks[0].Content)
	}
	if chunks[1].Metadata.RowIndex == nil || *chunks[1].Metadata.RowIndex != 1 {
		t.Errorf("second chunk rowIndex = %v, want 1", chunks[1].Metadata.RowIndex)
	}
	if len(chunks[0].Metadata.Columns) != 2 {
		t.Errorf("expected full annotation array, got %+v", chunks[0].Metadata.Columns)
	}
	if chunks[0].Metadata.CitationLabel() != "row 0" {
		t.Errorf("citation = %q, want row 0", chunks[0].Metadata.CitationLabel())
	}
}

func TestLoadCSVWithoutSchema(t *testing.T) {
	path := writeFile(t, "data.csv", "Name,Risk\nSeawall,Storm surge\n")
	chunks, err := Load(path, Options{FileName: "data.csv"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if chunks != nil {
		t.Error("no partial output allowed on schema error")
	}
}

func TestLoadXLSXFirstSheetOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]string{"Name", "Risk"})
	_ = f.SetSheetRow(sheet, "A2", &[]string{"Seawall", "Storm surge"})
	if _, err := f.NewSheet("Second"); err != nil {
		t.Fatal(err)
	}
	_ = f.SetSheetRow("Second", "A1", &[]string{"Ignored", "Rows"})
	_ = f.SetSheetRow("Second", "A2", &[]string{"x", "y"})
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	chunks, err := Load(path, Options{FileName: "data.xlsx", Schema: riskSchema})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 (first sheet only)", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "[Name - project/reference]: Seawall") {
		t.Errorf("unexpected content: %q", chunks[0].Content)
	}
}

func TestLoadTextSingleChunk(t *testing.T) {
	path := writeFile(t, "notes.txt", "A short note about drainage.\n")
	chunks, err := Load(path, Options{FileName: "notes.txt"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "A short note about drainage." {
		t.Errorf("content = %q", chunks[0].Content)
	}
	if chunks[0].Metadata.CitationLabel() != "page 1" {
		t.Errorf("citation = %q", chunks[0].Metadata.CitationLabel())
	}
}

func TestLoadLongTextSplits(t *testing.T) {
	long := strings.Repeat("drainage assessment sentence. ", 200)
	path := writeFile(t, "long.txt", long)
	chunks, err := Load(path, Options{FileName: "long.txt", WindowSize: 500, WindowOverlap: 50})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("long text should split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c.Content)) > 500 {
			t.Errorf("chunk %d over window size", i)
		}
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "image.png", "not really an image")
	_, err := Load(path, Options{FileName: "image.png"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReadColumns(t *testing.T) {
	path := writeFile(t, "data.csv", "Name,Risk,Cost\nSeawall,Surge,1M\n")
	cols, err := ReadColumns(path)
	if err != nil {
		t.Fatalf("ReadColumns: %v", err)
	}
	want := []string{"Name", "Risk", "Cost"}
	if len(cols) != len(want) {
		t.Fatalf("cols = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("col %d = %q, want %q", i, cols[i], want[i])
		}
	}

	if _, err := ReadColumns(writeFile(t, "notes.txt", "x")); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("ReadColumns on txt should be a validation error, got %v", err)
	}
}
