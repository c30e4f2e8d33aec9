// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import (
	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

type Input struct {
	QueryType  string                     `json:"queryType"`
	VehicleID  int64                      `json:"vehicleId,omitempty"`
	Filters    map[string]interface{}     `json:"filters,omitempty"`
	Predicates *recommendation.Predicates `json:"predicates,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeVehicleCatalog        = models.QueryTypeVehicleCatalog
	QueryTypeVehicleDetail         = models.QueryTypeVehicleDetail
	QueryTypeBranchList            = models.QueryTypeBranchList
	QueryTypeVehicleRecommendation = models.QueryTypeVehicleRecommendation
)
