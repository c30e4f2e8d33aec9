// internal/workers/data-access/query-elasticsearch/queries/index.go
package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"rental-workers/internal/models"
)

// EnsureIndex creates index with VehicleIndexMapping when it is missing.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = es.Indices.Create(index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(strings.NewReader(VehicleIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", index, res.String())
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexVehicles upserts vehicles keyed by id in a single bulk request.
func IndexVehicles(ctx context.Context, es *elasticsearch.Client, index string, vehicles []models.Vehicle) (int, error) {
	if len(vehicles) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, v := range vehicles {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": index, "_id": strconv.FormatInt(v.ID, 10)},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(NewVehicleDocument(v)); err != nil {
			return 0, err
		}
	}

	res, err := es.Bulk(&buf, es.Bulk.WithContext(ctx), es.Bulk.WithRefresh("true"))
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", res.String())
	}

	var r bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	indexed := 0
	var firstErr string
	for _, item := range r.Items {
		for _, op := range item {
			if op.Error == nil && op.Status < 300 {
				indexed++
			} else if firstErr == "" && op.Error != nil {
				firstErr = op.Error.Reason
			}
		}
	}
	if r.Errors {
		return indexed, fmt.Errorf("bulk index: %d of %d failed: %s", len(vehicles)-indexed, len(vehicles), firstErr)
	}
	return indexed, nil
}
