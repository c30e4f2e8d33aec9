// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeVehicleCatalog:        VehicleCatalog,
	models.QueryTypeVehicleDetail:         VehicleDetail,
	models.QueryTypeBranchList:            BranchList,
	models.QueryTypeVehicleRecommendation: VehicleRecommendation,
}

func Execute(ctx context.Context, db *sql.DB, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, db, params)
}

func VehicleCatalog(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	page, err := ListVehicles(ctx, db, CatalogParamsFromMap(params))
	if err != nil {
		return nil, 0, 0, err
	}
	return page, len(page.Data), time.Since(start).Milliseconds(), nil
}

func VehicleDetail(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	id, ok := paramInt(params, "vehicleId")
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: vehicleId", ErrMissingParam)
	}

	start := time.Now()
	vehicle, err := GetVehicle(ctx, db, int64(id))
	if err != nil {
		return nil, 0, 0, err
	}
	return vehicle, 1, time.Since(start).Milliseconds(), nil
}

func BranchList(ctx context.Context, db *sql.DB, _ map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	branches, err := ListBranches(ctx, db)
	if err != nil {
		return nil, 0, 0, err
	}
	return branches, len(branches), time.Since(start).Milliseconds(), nil
}

func VehicleRecommendation(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	var p recommendation.Predicates
	switch v := params["predicates"].(type) {
	case recommendation.Predicates:
		p = v
	case *recommendation.Predicates:
		if v == nil {
			return nil, 0, 0, fmt.Errorf("%w: predicates", ErrMissingParam)
		}
		p = *v
	default:
		return nil, 0, 0, fmt.Errorf("%w: predicates", ErrMissingParam)
	}

	start := time.Now()
	vehicles, err := FindVehicles(ctx, db, p)
	if err != nil {
		return nil, 0, 0, err
	}
	return vehicles, len(vehicles), time.Since(start).Milliseconds(), nil
}

// CatalogParamsFromMap reads catalog filters from decoded job variables.
func CatalogParamsFromMap(params map[string]interface{}) CatalogParams {
	p := CatalogParams{
		Q:     paramString(params, "q"),
		City:  paramString(params, "city"),
		Sort:  paramString(params, "sort"),
		Order: paramString(params, "order"),
	}
	if v, ok := paramFloat(params, "min"); ok {
		p.Min = &v
	}
	if v, ok := paramFloat(params, "max"); ok {
		p.Max = &v
	}
	if v, ok := paramInt(params, "page"); ok {
		p.Page = v
	}
	if v, ok := paramInt(params, "limit"); ok {
		p.Limit = v
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

func paramInt(params map[string]interface{}, key string) (int, bool) {
	f, ok := paramFloat(params, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}
