// internal/recommendation/predicate_test.go
package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPredicates_PriceShapes(t *testing.T) {
	opts := DefaultOptions()

	p := BuildPredicates(NormalizedCriteria{MinPrice: floatPtr(300000), MaxPrice: floatPtr(500000)}, opts)
	require.NotNil(t, p.Price)
	assert.Equal(t, floatPtr(300000), p.Price.Min)
	assert.Equal(t, floatPtr(500000), p.Price.Max)

	p = BuildPredicates(NormalizedCriteria{MaxPrice: floatPtr(500000)}, opts)
	require.NotNil(t, p.Price)
	assert.Nil(t, p.Price.Min)
	assert.Equal(t, floatPtr(500000), p.Price.Max)

	p = BuildPredicates(NormalizedCriteria{MinPrice: floatPtr(300000)}, opts)
	require.NotNil(t, p.Price)
	assert.Equal(t, floatPtr(300000), p.Price.Min)
	assert.Nil(t, p.Price.Max)

	p = BuildPredicates(NormalizedCriteria{}, opts)
	assert.Nil(t, p.Price)
	assert.Equal(t, DefaultResultLimit, p.Limit)
}

func TestBuildPredicates_DenyListThreshold(t *testing.T) {
	opts := DefaultOptions()

	for seats := 1; seats <= 8; seats++ {
		p := BuildPredicates(NormalizedCriteria{MinSeats: intPtr(seats)}, opts)
		assert.Equal(t, seats >= 6, p.HasDenyList(), "seats=%d", seats)
		assert.Equal(t, seats, *p.MinSeats)
	}

	p := BuildPredicates(NormalizedCriteria{}, opts)
	assert.False(t, p.HasDenyList())
	assert.Nil(t, p.MinSeats)
}

func TestBuildPredicates_ConfigurableDenyList(t *testing.T) {
	p := BuildPredicates(NormalizedCriteria{MinSeats: intPtr(7)}, Options{DenyList: []string{"Wuling"}})
	assert.Equal(t, []string{"Wuling"}, p.Exclude)

	p = BuildPredicates(NormalizedCriteria{MinSeats: intPtr(7)}, Options{DenyList: []string{}})
	assert.False(t, p.HasDenyList())
}

func TestBuildPredicates_CityAndType(t *testing.T) {
	c := Normalize(&ExtractionResult{OriginCity: "Jakarta", City: "Bandung", Type: "suv"}, "")
	p := BuildPredicates(c, DefaultOptions())
	assert.Equal(t, "Jakarta", *p.BranchCity)
	assert.Equal(t, "suv", *p.TypeHint)
}

func TestPredicates_Relaxed(t *testing.T) {
	tests := []struct {
		seats int
		want  int
	}{
		{8, 7},
		{7, 6},
		{6, 5},
		{5, 5},
		{2, 5},
	}

	for _, tt := range tests {
		strict := BuildPredicates(NormalizedCriteria{
			MinSeats:        intPtr(tt.seats),
			MaxPrice:        floatPtr(500000),
			LocationCity:    strPtr("Jakarta"),
			VehicleTypeHint: strPtr("MPV"),
		}, DefaultOptions())

		relaxed := strict.Relaxed(DefaultRelaxedSeatFloor)
		assert.Equal(t, tt.want, *relaxed.MinSeats)
		assert.False(t, relaxed.HasDenyList())
		assert.Equal(t, strict.Price, relaxed.Price)
		assert.Equal(t, strict.BranchCity, relaxed.BranchCity)
		assert.Equal(t, strict.TypeHint, relaxed.TypeHint)
		assert.Equal(t, tt.seats, *strict.MinSeats, "strict predicates must not be mutated")
	}

	noSeats := Predicates{Limit: 18}
	assert.Equal(t, noSeats, noSeats.Relaxed(5))
}
