// internal/workers/data-access/query-elasticsearch/queries/builders.go
package queries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rental-workers/internal/recommendation"
)

const (
	DefaultSearchSize = 20
	MaxSearchSize     = 100
)

// VehicleIndexMapping is the vehicle index layout. Text fields carry a
// keyword subfield for wildcard matching; branch.city is an exact keyword.
const VehicleIndexMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "long"},
      "branchId":     {"type": "long"},
      "name":         {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "brand":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "type":         {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "plateNumber":  {"type": "keyword"},
      "seat":         {"type": "integer"},
      "transmission": {"type": "keyword"},
      "fuelType":     {"type": "keyword"},
      "year":         {"type": "integer"},
      "dailyPrice":   {"type": "long"},
      "status":       {"type": "keyword"},
      "imgUrl":       {"type": "keyword", "index": false},
      "description":  {"type": "text"},
      "createdAt":    {"type": "date"},
      "updatedAt":    {"type": "date"},
      "branch": {
        "properties": {
          "id":      {"type": "long"},
          "name":    {"type": "keyword"},
          "city":    {"type": "keyword"},
          "address": {"type": "text"}
        }
      }
    }
  }
}`

var (
	hintFields    = []string{"type.keyword", "name.keyword", "brand.keyword"}
	excludeFields = []string{"name.keyword", "brand.keyword", "type.keyword"}
)

// SearchParams drives the free-text catalog search.
type SearchParams struct {
	Q    string
	City string
	Min  *float64
	Max  *float64
	From int
	Size int
}

func (p SearchParams) Normalize() SearchParams {
	if p.From < 0 {
		p.From = 0
	}
	if p.Size < 1 {
		p.Size = DefaultSearchSize
	}
	if p.Size > MaxSearchSize {
		p.Size = MaxSearchSize
	}
	p.Q = strings.TrimSpace(p.Q)
	p.City = strings.TrimSpace(p.City)
	return p
}

// BuildVehicleSearchQuery renders a relevance-ranked search. Without a text
// query the newest listings come first.
func BuildVehicleSearchQuery(p SearchParams) map[string]interface{} {
	var must []interface{}
	var filter []interface{}

	if p.Q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  p.Q,
				"fields": []string{"name^2", "brand", "type"},
			},
		})
	}
	if p.City != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"branch.city": p.City},
		})
	}
	if r := priceRange(p.Min, p.Max); r != nil {
		filter = append(filter, r)
	}

	sort := []interface{}{
		map[string]interface{}{"createdAt": "desc"},
		map[string]interface{}{"id": "asc"},
	}
	if p.Q != "" {
		sort = append([]interface{}{"_score"}, sort...)
	}

	return map[string]interface{}{
		"query": boolQuery(must, filter, nil),
		"sort":  sort,
	}
}

// RenderPredicates translates recommendation predicates into a bool query
// sorted by daily price and sized to the predicate limit.
func RenderPredicates(p recommendation.Predicates) map[string]interface{} {
	var filter []interface{}
	var mustNot []interface{}

	if p.Price != nil {
		if r := priceRange(p.Price.Min, p.Price.Max); r != nil {
			filter = append(filter, r)
		}
	}

	if p.TypeHint != nil && strings.TrimSpace(*p.TypeHint) != "" {
		should := make([]interface{}, 0, len(hintFields))
		for _, f := range hintFields {
			should = append(should, wildcard(f, *p.TypeHint))
		}
		filter = append(filter, map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		})
	}

	if p.MinSeats != nil {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"seat": map[string]interface{}{"gte": *p.MinSeats}},
		})
	}

	for _, term := range p.Exclude {
		for _, f := range excludeFields {
			mustNot = append(mustNot, wildcard(f, term))
		}
	}

	if p.BranchCity != nil {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"branch.city": *p.BranchCity},
		})
	}

	size := p.Limit
	if size <= 0 {
		size = recommendation.DefaultResultLimit
	}

	return map[string]interface{}{
		"query": boolQuery(nil, filter, mustNot),
		"sort": []interface{}{
			map[string]interface{}{"dailyPrice": "asc"},
			map[string]interface{}{"id": "asc"},
		},
		"size": size,
	}
}

// NewSearchRequest encodes body into a search against index.
func NewSearchRequest(index string, body map[string]interface{}, from, size *int) (*esapi.SearchRequest, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}
	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  &buf,
		From:  from,
		Size:  size,
	}, nil
}

func boolQuery(must, filter, mustNot []interface{}) map[string]interface{} {
	if len(must) == 0 && len(filter) == 0 && len(mustNot) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	b := map[string]interface{}{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(filter) > 0 {
		b["filter"] = filter
	}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	return map[string]interface{}{"bool": b}
}

func priceRange(min, max *float64) map[string]interface{} {
	if min == nil && max == nil {
		return nil
	}
	bounds := map[string]interface{}{}
	if min != nil {
		bounds["gte"] = *min
	}
	if max != nil {
		bounds["lte"] = *max
	}
	return map[string]interface{}{
		"range": map[string]interface{}{"dailyPrice": bounds},
	}
}

func wildcard(field, term string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{
				"value":            "*" + escapeWildcard(term) + "*",
				"case_insensitive": true,
			},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
