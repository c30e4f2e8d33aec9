// internal/workers/data-access/query-postgresql/queries/finder.go
package queries

import (
	"context"
	"database/sql"
	"errors"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

// PostgresFinder serves recommendation predicates from the relational
// read model. Failures are returned as QUERY_TIMEOUT or
// QUERY_EXECUTION_FAILED standard errors.
type PostgresFinder struct {
	db *sql.DB
}

var _ recommendation.VehicleFinder = (*PostgresFinder)(nil)

func NewPostgresFinder(db *sql.DB) *PostgresFinder {
	return &PostgresFinder{db: db}
}

func (f *PostgresFinder) FindVehicles(ctx context.Context, p recommendation.Predicates) ([]models.Vehicle, error) {
	vehicles, err := FindVehicles(ctx, f.db, p)
	if err == nil {
		return vehicles, nil
	}

	qt := string(models.QueryTypeVehicleRecommendation)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, apperrors.NewQueryTimeoutError(qt)
	}
	return nil, apperrors.NewQueryExecutionFailedError(qt, err)
}
