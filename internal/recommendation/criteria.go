// internal/recommendation/criteria.go
package recommendation

// NormalizedCriteria is the validated form of an extraction. Absent values
// are nil. MinSeats is nil or >= 1. MinPrice <= MaxPrice is not enforced.
type NormalizedCriteria struct {
	LocationCity    *string  `json:"locationCity"`
	OriginCity      *string  `json:"originCity"`
	MinPrice        *float64 `json:"minPrice"`
	MaxPrice        *float64 `json:"maxPrice"`
	VehicleTypeHint *string  `json:"vehicleTypeHint"`
	MinSeats        *int     `json:"minSeats"`
	RentalDays      *int     `json:"rentalDays"`
}

// InvertedBudget reports a min above max. The range is kept as extracted.
func (c NormalizedCriteria) InvertedBudget() bool {
	return c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice
}

// FiltersView is the criteria as echoed back to clients.
type FiltersView struct {
	City       *string  `json:"city"`
	OriginCity *string  `json:"originCity"`
	Min        *float64 `json:"min"`
	Max        *float64 `json:"max"`
	Type       *string  `json:"type"`
	People     *int     `json:"people"`
	Days       *int     `json:"days"`
}

func (c NormalizedCriteria) View() FiltersView {
	return FiltersView{
		City:       c.LocationCity,
		OriginCity: c.OriginCity,
		Min:        c.MinPrice,
		Max:        c.MaxPrice,
		Type:       c.VehicleTypeHint,
		People:     c.MinSeats,
		Days:       c.RentalDays,
	}
}
