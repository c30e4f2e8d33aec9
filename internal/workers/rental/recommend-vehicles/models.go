// internal/workers/rental/recommend-vehicles/models.go
package recommendvehicles

import "rental-workers/internal/recommendation"

// inputSchema accepts a missing or null prompt so it surfaces as
// PROMPT_EMPTY rather than a schema violation.
const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "prompt": {"type": ["string", "null"]}
  }
}`

type Input struct {
	Prompt string `json:"prompt"`
}

type Output = recommendation.Response
