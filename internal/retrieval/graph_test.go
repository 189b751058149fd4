package retrieval

import (
	"strings"
	"testing"

	"resilience-rag/internal/models"
)

func rowChunk(fileName string, cols ...models.ColumnAnnotation) models.Chunk {
	row := 0
	return models.Chunk{
		Content: "row content",
		Metadata: models.ChunkMetadata{
			FileName: fileName,
			RowIndex: &row,
			Columns:  cols,
		},
	}
}

func TestBuildGraphEmpty(t *testing.T) {
	g := BuildGraph(nil)
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("empty input must yield an empty graph, got %+v", g)
	}
}

func TestBuildGraphDocAndValueNodes(t *testing.T) {
	g := BuildGraph([]models.Chunk{
		rowChunk("cases.csv",
			models.ColumnAnnotation{ColName: "Risk", InfoCategory: "disaster", MetaCategory: "input condition", CellValue: "Storm surge"},
			models.ColumnAnnotation{ColName: "Strategy", InfoCategory: "project", MetaCategory: "strategy", CellValue: "Seawall"},
		),
	})

	if got := len(g.Nodes); got != 3 {
		t.Fatalf("nodes = %d, want doc + 2 values", got)
	}
	if g.Nodes[0].Type != "doc" || g.Nodes[0].Label != "cases.csv" {
		t.Errorf("first node = %+v, want the doc node", g.Nodes[0])
	}
	if got := len(g.Edges); got != 2 {
		t.Fatalf("edges = %d, want 2", got)
	}
	for _, e := range g.Edges {
		if e.Relation != "hasValue" {
			t.Errorf("relation = %q", e.Relation)
		}
		if e.Source != g.Nodes[0].ID {
			t.Errorf("edge source = %q, want the doc node", e.Source)
		}
	}
}

func TestBuildGraphLocalMerge(t *testing.T) {
	// The same value in the same file and column collapses to one node,
	// with one edge per occurrence.
	g := BuildGraph([]models.Chunk{
		rowChunk("cases.csv", models.ColumnAnnotation{ColName: "Risk", InfoCategory: "disaster", MetaCategory: "input condition", CellValue: "Storm surge"}),
		rowChunk("cases.csv", models.ColumnAnnotation{ColName: "Risk", InfoCategory: "disaster", MetaCategory: "input condition", CellValue: "Storm surge"}),
	})
	if got := len(g.Nodes); got != 2 {
		t.Errorf("nodes = %d, want doc + 1 merged value", got)
	}
	if got := len(g.Edges); got != 2 {
		t.Errorf("edges = %d, want one per occurrence", got)
	}
}

func TestBuildGraphGlobalMerge(t *testing.T) {
	// The same value under the same categories merges across files; the
	// shared node keeps edges from both docs.
	g := BuildGraph([]models.Chunk{
		rowChunk("a.csv", models.ColumnAnnotation{ColName: "Risk", InfoCategory: "disaster", MetaCategory: "input condition", CellValue: "Storm surge"}),
		rowChunk("b.csv", models.ColumnAnnotation{ColName: "Hazard", InfoCategory: "disaster", MetaCategory: "input condition", CellValue: "Storm surge"}),
	})
	if got := len(g.Nodes); got != 3 {
		t.Fatalf("nodes = %d, want 2 docs + 1 shared value", got)
	}
	if got := len(g.Edges); got != 2 {
		t.Fatalf("edges = %d", got)
	}
	if g.Edges[0].Target != g.Edges[1].Target {
		t.Error("both docs must point at the shared value node")
	}
	if g.Edges[0].Source == g.Edges[1].Source {
		t.Error("edges must come from distinct doc nodes")
	}
}

func TestBuildGraphNoMergeAcrossCategories(t *testing.T) {
	// Same value but different categories stays separate across files.
	g := BuildGraph([]models.Chunk{
		rowChunk("a.csv", models.ColumnAnnotation{ColName: "Risk", InfoCategory: "disaster", MetaCategory: "input condition", CellValue: "Storm surge"}),
		rowChunk("b.csv", models.ColumnAnnotation{ColName: "Topic", InfoCategory: "theme", MetaCategory: "reference", CellValue: "Storm surge"}),
	})
	if got := len(g.Nodes); got != 4 {
		t.Errorf("nodes = %d, want 2 docs + 2 distinct values", got)
	}
}

func TestBuildGraphSkipsEmptyAndWrapsLongValues(t *testing.T) {
	long := strings.Repeat("flood resilience planning ", 8) // > 80 runes
	g := BuildGraph([]models.Chunk{
		rowChunk("a.csv",
			models.ColumnAnnotation{ColName: "Empty", InfoCategory: "x", MetaCategory: "y", CellValue: "   "},
			models.ColumnAnnotation{ColName: "Long", InfoCategory: "x", MetaCategory: "y", CellValue: long},
		),
	})
	if got := len(g.Nodes); got != 2 {
		t.Fatalf("nodes = %d, want doc + long value only", got)
	}
	if !strings.Contains(g.Nodes[1].Label, "\n") {
		t.Error("long value label should be wrapped onto multiple lines")
	}
}
