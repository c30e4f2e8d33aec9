// internal/workers/data-access/query-elasticsearch/queries/finder.go
package queries

import (
	"context"
	"errors"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

// ElasticsearchFinder serves recommendation predicates from the vehicle
// search index.
type ElasticsearchFinder struct {
	es    *elasticsearch.Client
	index string
}

var _ recommendation.VehicleFinder = (*ElasticsearchFinder)(nil)

func NewElasticsearchFinder(es *elasticsearch.Client, index string) *ElasticsearchFinder {
	return &ElasticsearchFinder{es: es, index: index}
}

func (f *ElasticsearchFinder) FindVehicles(ctx context.Context, p recommendation.Predicates) ([]models.Vehicle, error) {
	result, err := VehicleRecommendation(ctx, f.es, f.index, map[string]interface{}{"predicates": p})
	if err == nil {
		return result.Data, nil
	}
	return nil, MapError(ctx, string(models.QueryTypeVehicleRecommendation), f.index, err)
}

// MapError converts a search failure into a standard error. Errors that
// never produced a response are treated as connection failures.
func MapError(ctx context.Context, queryType, index string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrSearchTimedOut),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewSearchTimeoutError(queryType)
	case errors.Is(err, ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(index)
	case errors.Is(err, ErrSearchFailed), errors.Is(err, ErrMissingParam):
		return apperrors.NewSearchQueryFailedError(queryType, err)
	default:
		return apperrors.NewElasticsearchConnectionFailedError(err)
	}
}
