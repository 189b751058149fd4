package models

import "fmt"

// Chunk is the unit of retrieval: a bounded piece of text plus enough
// metadata to reconstruct a human-readable citation.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata locates a chunk inside its source file. Page is set for
// unstructured text ("3" or "2-3" for a span); RowIndex and Columns are set
// for tabular rows.
type ChunkMetadata struct {
	FileName string             `json:"fileName"`
	DocType  string             `json:"docType"`
	Page     string             `json:"page,omitempty"`
	RowIndex *int               `json:"rowIndex,omitempty"`
	Columns  []ColumnAnnotation `json:"columnData,omitempty"`
	Role     string             `json:"role,omitempty"`
}

// ColumnAnnotation is one sanitized cell value with its schema categories.
type ColumnAnnotation struct {
	ColName      string `json:"colName"`
	InfoCategory string `json:"infoCategory"`
	MetaCategory string `json:"metaCategory"`
	CellValue    string `json:"cellValue"`
}

// ColumnSpec is one entry of a file's column schema, mapping a column name
// to its informational category and structural role.
type ColumnSpec struct {
	ColumnName   string `json:"columnName" yaml:"columnName"`
	InfoCategory string `json:"infoCategory" yaml:"infoCategory"`
	MetaCategory string `json:"metaCategory" yaml:"metaCategory"`
}

// FacetGroup is a set of values sharing one structural role.
type FacetGroup struct {
	Values []string `json:"values"`
	Type   string   `json:"type"`
}

// Facets carries the structured context a caller attaches to a question.
type Facets struct {
	ClimateRisks FacetGroup `json:"climateRisks"`
	Regulations  FacetGroup `json:"regulations"`
	ProjectTypes FacetGroup `json:"projectTypes"`
	Environment  FacetGroup `json:"environment"`
	Scale        FacetGroup `json:"scale"`
	Additional   string     `json:"additional"`
}

// CustomField is a free-form facet entry added by the caller.
type CustomField struct {
	FieldType  string `json:"fieldType"`
	FieldValue string `json:"fieldValue"`
}

// PromptResponse is a completed query: the answer, the prompt that produced
// it and the chunks it was grounded on.
type PromptResponse struct {
	Answer     string  `json:"answer"`
	UsedPrompt string  `json:"usedPrompt"`
	Docs       []Chunk `json:"docs"`
}

// CitationLabel renders the chunk position as "page N" or "row N".
func (m ChunkMetadata) CitationLabel() string {
	if m.RowIndex != nil {
		return fmt.Sprintf("row %d", *m.RowIndex)
	}
	if m.Page != "" {
		return "page " + m.Page
	}
	return "page/line?"
}
