package models

const (
	// Facet types distributed into the composed query.
	FacetDependency = "dependency"
	FacetReference  = "reference"
	FacetStrategy   = "strategy"

	// Document categories. Uploads default to DocTypeOtherResource.
	DocTypeCaseStudy     = "caseStudy"
	DocTypeStrategy      = "strategy"
	DocTypeOtherResource = "otherResource"

	// Conversation roles stored in session memory.
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	AnswerPromptTemplate = `You are an expert. %s

We found these chunks from the uploaded files:
%s

Now answer the question below concisely, referencing the found data if needed:
%s
`

	MultiSourcePromptTemplate = `Use the following pieces of context (from both conversation memory and file content) to answer the question.
If you don't know or it's not mentioned, just say "I don't know."

Context:
%s

User Question: %s
Answer:
`
)

// LanguageDirective returns the answer-language instruction for a prompt.
// English is the fallback for unknown codes.
func LanguageDirective(lang string) string {
	switch lang {
	case "zh":
		return "You must answer in Chinese."
	case "es":
		return "You must answer in Spanish."
	default:
		return "You must answer in English."
	}
}
