// internal/workers/data-access/query-elasticsearch/queries/document.go
package queries

import (
	"time"

	"rental-workers/internal/models"
)

// VehicleDocument is the indexed form of a vehicle with its branch inlined.
type VehicleDocument struct {
	ID           int64           `json:"id"`
	BranchID     *int64          `json:"branchId,omitempty"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Type         string          `json:"type"`
	PlateNumber  string          `json:"plateNumber"`
	Seat         int             `json:"seat"`
	Transmission string          `json:"transmission"`
	FuelType     string          `json:"fuelType"`
	Year         int             `json:"year"`
	DailyPrice   int64           `json:"dailyPrice"`
	Status       string          `json:"status"`
	ImgURL       string          `json:"imgUrl,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Branch       *BranchDocument `json:"branch,omitempty"`
}

type BranchDocument struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

func NewVehicleDocument(v models.Vehicle) VehicleDocument {
	doc := VehicleDocument{
		ID:           v.ID,
		BranchID:     v.BranchID,
		Name:         v.Name,
		Brand:        v.Brand,
		Type:         v.Type,
		PlateNumber:  v.PlateNumber,
		Seat:         v.Seat,
		Transmission: v.Transmission,
		FuelType:     v.FuelType,
		Year:         v.Year,
		DailyPrice:   v.DailyPrice,
		Status:       v.Status,
		ImgURL:       v.ImgURL,
		Description:  v.Description,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if v.Branch != nil {
		doc.Branch = &BranchDocument{
			ID:      v.Branch.ID,
			Name:    v.Branch.Name,
			City:    v.Branch.City,
			Address: v.Branch.Address,
		}
	}
	return doc
}

func (d VehicleDocument) Vehicle() models.Vehicle {
	v := models.Vehicle{
		ID:           d.ID,
		BranchID:     d.BranchID,
		Name:         d.Name,
		Brand:        d.Brand,
		Type:         d.Type,
		PlateNumber:  d.PlateNumber,
		Seat:         d.Seat,
		Transmission: d.Transmission,
		FuelType:     d.FuelType,
		Year:         d.Year,
		DailyPrice:   d.DailyPrice,
		Status:       d.Status,
		ImgURL:       d.ImgURL,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Branch != nil {
		v.Branch = &models.Branch{
			ID:      d.Branch.ID,
			Name:    d.Branch.Name,
			City:    d.Branch.City,
			Address: d.Branch.Address,
		}
	}
	return v
}
