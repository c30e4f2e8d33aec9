// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeVehicleCatalog        QueryType = "vehicle_catalog"
	QueryTypeVehicleDetail         QueryType = "vehicle_detail"
	QueryTypeBranchList            QueryType = "branch_list"
	QueryTypeVehicleRecommendation QueryType = "vehicle_recommendation"
	QueryTypeVehicleSearch         QueryType = "vehicle_search"
)
