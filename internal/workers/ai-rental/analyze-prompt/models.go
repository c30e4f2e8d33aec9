// internal/workers/ai-rental/analyze-prompt/models.go
package analyzeprompt

import "rental-workers/internal/recommendation"

type Input struct {
	Prompt string `json:"prompt"`
}

// Output carries both the raw model answer and the strict predicates so a
// process can hand them straight to a query task.
type Output struct {
	Extraction *recommendation.ExtractionResult  `json:"extraction"`
	Criteria   recommendation.NormalizedCriteria `json:"criteria"`
	Filters    recommendation.FiltersView        `json:"filters"`
	Predicates recommendation.Predicates         `json:"predicates"`
	Reason     string                            `json:"reason"`
	Degraded   bool                              `json:"degraded"`
}
