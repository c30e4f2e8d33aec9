// internal/models/vehicle.go
package models

import "time"

// Branch is a rental outlet. Vehicles are listed under exactly one branch.
type Branch struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
}

// Vehicle is the read model row of the "Vehicles" table, joined with its branch.
type Vehicle struct {
	ID           int64     `json:"id"`
	BranchID     *int64    `json:"BranchId"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Type         string    `json:"type"`
	PlateNumber  string    `json:"plateNumber"`
	Seat         int       `json:"seat"`
	Transmission string    `json:"transmission"`
	FuelType     string    `json:"fuelType"`
	Year         int       `json:"year"`
	DailyPrice   int64     `json:"dailyPrice"`
	Status       string    `json:"status"`
	ImgURL       string    `json:"imgUrl,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Branch       *Branch   `json:"Branch"`
}

const VehicleStatusAvailable = "AVAILABLE"
