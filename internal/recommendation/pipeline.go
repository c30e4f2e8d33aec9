// internal/recommendation/pipeline.go
package recommendation

import (
	"context"
	"fmt"

	"rental-workers/internal/models"
)

// VehicleFinder runs one predicate set against the vehicle read model.
type VehicleFinder interface {
	FindVehicles(ctx context.Context, p Predicates) ([]models.Vehicle, error)
}

type Stage string

const (
	StageStrict  Stage = "strict"
	StageRelaxed Stage = "relaxed"
)

// stages is fixed. A request never issues more than len(stages) queries.
var stages = []Stage{StageStrict, StageRelaxed}

type stageHook func(ctx context.Context, stage Stage, p Predicates) (context.Context, func(rows int, err error))

// runStages executes the strict query and, when it is empty and a seat
// floor exists, exactly one relaxed query.
func runStages(ctx context.Context, finder VehicleFinder, strict Predicates, opts Options, hook stageHook) ([]models.Vehicle, Stage, error) {
	var (
		vehicles []models.Vehicle
		last     Stage
	)

	for _, stage := range stages {
		p := strict
		if stage == StageRelaxed {
			if len(vehicles) > 0 || strict.MinSeats == nil {
				break
			}
			p = strict.Relaxed(opts.RelaxedSeatFloor)
		}

		stageCtx, done := ctx, func(int, error) {}
		if hook != nil {
			stageCtx, done = hook(ctx, stage, p)
		}

		rows, err := finder.FindVehicles(stageCtx, p)
		done(len(rows), err)
		if err != nil {
			return nil, stage, fmt.Errorf("%s query: %w", stage, err)
		}

		vehicles, last = rows, stage
	}

	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, last, nil
}
