// internal/workers/data-access/query-elasticsearch/queries/registry.go
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrIndexNotFound    = errors.New("index not found")
	ErrSearchFailed     = errors.New("search failed")
	ErrSearchTimedOut   = errors.New("search timed out")
)

type QueryResult struct {
	Data      []models.Vehicle
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type QueryFunc func(ctx context.Context, es *elasticsearch.Client, index string, params map[string]interface{}) (*QueryResult, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeVehicleSearch:         VehicleSearch,
	models.QueryTypeVehicleRecommendation: VehicleRecommendation,
}

func Execute(ctx context.Context, es *elasticsearch.Client, index string, queryType models.QueryType, params map[string]interface{}) (*QueryResult, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, es, index, params)
}

func VehicleSearch(ctx context.Context, es *elasticsearch.Client, index string, params map[string]interface{}) (*QueryResult, error) {
	p := SearchParamsFromMap(params).Normalize()

	req, err := NewSearchRequest(index, BuildVehicleSearchQuery(p), &p.From, &p.Size)
	if err != nil {
		return nil, err
	}
	return search(ctx, es, req)
}

func VehicleRecommendation(ctx context.Context, es *elasticsearch.Client, index string, params map[string]interface{}) (*QueryResult, error) {
	var p recommendation.Predicates
	switch v := params["predicates"].(type) {
	case recommendation.Predicates:
		p = v
	case *recommendation.Predicates:
		if v == nil {
			return nil, fmt.Errorf("%w: predicates", ErrMissingParam)
		}
		p = *v
	default:
		return nil, fmt.Errorf("%w: predicates", ErrMissingParam)
	}

	req, err := NewSearchRequest(index, RenderPredicates(p), nil, nil)
	if err != nil {
		return nil, err
	}
	return search(ctx, es, req)
}

type searchResponse struct {
	Took     int64 `json:"took"`
	TimedOut bool  `json:"timed_out"`
	Hits     struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			Source VehicleDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func search(ctx context.Context, es *elasticsearch.Client, req *esapi.SearchRequest) (*QueryResult, error) {
	start := time.Now()
	res, err := req.Do(ctx, es)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexName(req))
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: %s %s", ErrSearchFailed, res.Status(), body)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}
	if r.TimedOut {
		return nil, ErrSearchTimedOut
	}

	data := make([]models.Vehicle, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		data = append(data, hit.Source.Vehicle())
	}

	result := &QueryResult{
		Data:      data,
		TotalHits: r.Hits.Total.Value,
		Took:      time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}
	return result, nil
}

func indexName(req *esapi.SearchRequest) string {
	if len(req.Index) == 0 {
		return ""
	}
	return req.Index[0]
}

// SearchParamsFromMap reads search filters from decoded job variables.
func SearchParamsFromMap(params map[string]interface{}) SearchParams {
	p := SearchParams{
		Q:    paramString(params, "q"),
		City: paramString(params, "city"),
	}
	if v, ok := paramFloat(params, "min"); ok {
		p.Min = &v
	}
	if v, ok := paramFloat(params, "max"); ok {
		p.Max = &v
	}
	if v, ok := paramFloat(params, "from"); ok {
		p.From = int(v)
	}
	if v, ok := paramFloat(params, "size"); ok {
		p.Size = int(v)
	}
	return p
}

func paramString(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

func paramFloat(params map[string]interface{}, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
