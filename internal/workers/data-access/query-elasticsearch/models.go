// internal/workers/data-access/query-elasticsearch/models.go
package queryelasticsearch

import (
	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

type Input struct {
	IndexName  string                     `json:"indexName,omitempty"`
	QueryType  string                     `json:"queryType"`
	Filters    map[string]interface{}     `json:"filters,omitempty"`
	Predicates *recommendation.Predicates `json:"predicates,omitempty"`
	Pagination Pagination                 `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Data      []models.Vehicle `json:"data"`
	TotalHits int64            `json:"totalHits"`
	MaxScore  float64          `json:"maxScore"`
	Took      int64            `json:"took"` // milliseconds
}
