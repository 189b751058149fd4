package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"resilience-rag/internal/models"
	"resilience-rag/internal/textutil"
)

// Node is one graph vertex: a source document or a column value.
type Node struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Type         string `json:"type"`
	MetaCategory string `json:"metaCategory,omitempty"`
	InfoCategory string `json:"infoCategory,omitempty"`
}

// Edge links a document node to one of its column values.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Graph is the document/value view of a retrieval result set.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BuildGraph derives a graph from a set of retrieved chunks: one node per
// source file and one node per distinct column value, connected by
// "hasValue" edges. Values merge twice over: locally when the same file and
// column repeat a value, and globally when two files share a value under the
// same meta and info categories, so recurring facts collapse into shared
// vertices across files.
func BuildGraph(chunks []models.Chunk) Graph {
	g := Graph{Nodes: []Node{}, Edges: []Edge{}}
	if len(chunks) == 0 {
		return g
	}

	docNodes := make(map[string]string)
	for _, c := range chunks {
		fileName := c.Metadata.FileName
		if fileName == "" {
			fileName = "unknownFile"
		}
		if _, ok := docNodes[fileName]; ok {
			continue
		}
		id := "doc-" + fileName
		docNodes[fileName] = id
		g.Nodes = append(g.Nodes, Node{ID: id, Label: fileName, Type: "doc"})
	}

	localNodes := make(map[string]string)
	globalNodes := make(map[string]string)
	valSeq := 0

	for _, c := range chunks {
		fileName := c.Metadata.FileName
		if fileName == "" {
			fileName = "unknownFile"
		}
		docID := docNodes[fileName]

		for colIdx, col := range c.Metadata.Columns {
			colName := col.ColName
			if colName == "" {
				colName = fmt.Sprintf("col-%d", colIdx)
			}
			metaC := valueOr(col.MetaCategory, "other")
			infoC := valueOr(col.InfoCategory, "other")

			val := strings.TrimSpace(col.CellValue)
			if utf8.RuneCountInString(val) > 80 {
				val = textutil.InsertLineBreaks(val, 60)
			}
			if val == "" {
				continue
			}

			// Same file and column always merge; across files only a
			// matching category pair does.
			localKey := fileName + "::" + colName + "::" + val
			globalKey := metaC + "::" + infoC + "::" + val

			nodeID, ok := localNodes[localKey]
			if !ok {
				nodeID, ok = globalNodes[globalKey]
			}
			if !ok {
				nodeID = fmt.Sprintf("valNode-%d", valSeq)
				valSeq++
				g.Nodes = append(g.Nodes, Node{
					ID:           nodeID,
					Label:        val,
					Type:         "colVal",
					MetaCategory: metaC,
					InfoCategory: infoC,
				})
			}
			localNodes[localKey] = nodeID
			globalNodes[globalKey] = nodeID

			g.Edges = append(g.Edges, Edge{
				ID:       fmt.Sprintf("edge-%s-%s-%d", docID, nodeID, colIdx),
				Source:   docID,
				Target:   nodeID,
				Relation: "hasValue",
			})
		}
	}
	return g
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
