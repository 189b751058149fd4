// Package retrieval fans a composed query out over a set of file indexes,
// assembles the answering prompt and optionally derives a graph view of the
// retrieved rows.
package retrieval

import (
	"fmt"
	"strings"

	"resilience-rag/internal/models"
)

// ComposeQuery merges the structured facets, the caller's custom fields and
// the literal question into a single retrieval query. Facet groups are
// distributed by their declared type; section order is fixed so the same
// inputs always compose to the same string.
func ComposeQuery(facets models.Facets, custom []models.CustomField, question string) string {
	var deps, refs, strats []string
	distribute := func(g models.FacetGroup) {
		switch g.Type {
		case models.FacetDependency:
			deps = append(deps, g.Values...)
		case models.FacetReference:
			refs = append(refs, g.Values...)
		case models.FacetStrategy:
			strats = append(strats, g.Values...)
		}
	}
	distribute(facets.ClimateRisks)
	distribute(facets.Regulations)
	distribute(facets.ProjectTypes)
	distribute(facets.Environment)
	distribute(facets.Scale)

	for _, cf := range custom {
		switch cf.FieldType {
		case models.FacetDependency:
			deps = append(deps, cf.FieldValue)
		case models.FacetReference:
			refs = append(refs, cf.FieldValue)
		case models.FacetStrategy:
			strats = append(strats, cf.FieldValue)
		}
	}

	composed := fmt.Sprintf(
		"User Dependencies: %s\nUser References: %s\nUser Strategies: %s\nAdditional: %s\n\nUser's question: %s",
		strings.Join(deps, ", "),
		strings.Join(refs, ", "),
		strings.Join(strats, ", "),
		facets.Additional,
		question,
	)
	return strings.TrimSpace(composed)
}
