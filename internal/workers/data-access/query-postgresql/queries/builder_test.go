// internal/workers/data-access/query-postgresql/queries/builder_test.go
package queries

import (
	"math"
	"strings"
	"testing"

	"rental-workers/internal/recommendation"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestRenderPredicates(t *testing.T) {
	tests := []struct {
		name     string
		p        recommendation.Predicates
		contains []string
		absent   []string
		wantArgs []interface{}
	}{
		{
			name:     "no predicates",
			p:        recommendation.Predicates{Limit: 18},
			contains: []string{`FROM "Vehicles" v LEFT JOIN "Branches" b ON b.id = v."BranchId"`, `ORDER BY v."dailyPrice" ASC, v.id ASC LIMIT $1`},
			absent:   []string{"WHERE"},
			wantArgs: []interface{}{18},
		},
		{
			name: "price range both bounds",
			p: recommendation.Predicates{
				Price: &recommendation.PriceRange{Min: floatPtr(300000), Max: floatPtr(500000)},
				Limit: 18,
			},
			contains: []string{`WHERE v."dailyPrice" >= $1::numeric AND v."dailyPrice" <= $2::numeric`, "LIMIT $3"},
			wantArgs: []interface{}{300000.0, 500000.0, 18},
		},
		{
			name: "max only",
			p: recommendation.Predicates{
				Price: &recommendation.PriceRange{Max: floatPtr(350000)},
				Limit: 18,
			},
			contains: []string{`WHERE v."dailyPrice" <= $1::numeric`},
			absent:   []string{">="},
			wantArgs: []interface{}{350000.0, 18},
		},
		{
			name: "fractional and over-int4 budget compared as numeric",
			p: recommendation.Predicates{
				Price: &recommendation.PriceRange{Min: floatPtr(150000.5), Max: floatPtr(3.5e9)},
				Limit: 18,
			},
			contains: []string{`v."dailyPrice" >= $1::numeric`, `v."dailyPrice" <= $2::numeric`},
			wantArgs: []interface{}{150000.5, 3.5e9, 18},
		},
		{
			name: "type hint matches type name or brand",
			p:    recommendation.Predicates{TypeHint: strPtr("SUV"), Limit: 18},
			contains: []string{
				"(v.type ILIKE $1 OR v.name ILIKE $1 OR v.brand ILIKE $1)",
			},
			wantArgs: []interface{}{"%SUV%", 18},
		},
		{
			name: "large group excludes city cars",
			p: recommendation.Predicates{
				MinSeats: intPtr(7),
				Exclude:  []string{"Ayla", "Go+"},
				Limit:    18,
			},
			contains: []string{
				"v.seat >= $1",
				"NOT (v.name ILIKE $2 OR v.brand ILIKE $2 OR v.type ILIKE $2)",
				"NOT (v.name ILIKE $3 OR v.brand ILIKE $3 OR v.type ILIKE $3)",
			},
			wantArgs: []interface{}{7, "%Ayla%", "%Go+%", 18},
		},
		{
			name:     "branch city equality",
			p:        recommendation.Predicates{BranchCity: strPtr("Bandung"), Limit: 5},
			contains: []string{"WHERE b.city = $1", "LIMIT $2"},
			wantArgs: []interface{}{"Bandung", 5},
		},
		{
			name:     "zero limit uses default",
			p:        recommendation.Predicates{},
			wantArgs: []interface{}{recommendation.DefaultResultLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := RenderPredicates(tt.p)
			flat := strings.Join(strings.Fields(query), " ")
			for _, fragment := range tt.contains {
				assert.Contains(t, flat, fragment)
			}
			for _, fragment := range tt.absent {
				assert.NotContains(t, flat, fragment)
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRenderPredicates_InvertedBudgetKept(t *testing.T) {
	_, args := RenderPredicates(recommendation.Predicates{
		Price: &recommendation.PriceRange{Min: floatPtr(500000), Max: floatPtr(300000)},
	})
	assert.Equal(t, []interface{}{500000.0, 300000.0, recommendation.DefaultResultLimit}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
	assert.Equal(t, "Go+", escapeLike("Go+"))
}

func TestCatalogParams_Normalize(t *testing.T) {
	p := CatalogParams{Page: -2, Limit: 100, Sort: "price; DROP TABLE", Order: "asc"}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxCatalogLimit, p.Limit)
	assert.Equal(t, "createdAt", p.Sort)
	assert.Equal(t, "ASC", p.Order)

	huge := CatalogParams{Page: math.MaxInt}.Normalize()
	assert.Equal(t, MaxCatalogPage, huge.Page)
	assert.Positive(t, (huge.Page-1)*MaxCatalogLimit)

	d := CatalogParams{}.Normalize()
	assert.Equal(t, DefaultCatalogLimit, d.Limit)
	assert.Equal(t, "DESC", d.Order)
}

func TestCatalogParamsFromMap(t *testing.T) {
	p := CatalogParamsFromMap(map[string]interface{}{
		"q": "avanza", "city": "Jakarta", "min": 200000.0, "page": 2.0, "limit": 12.0, "sort": "dailyPrice",
	})
	assert.Equal(t, "avanza", p.Q)
	assert.Equal(t, "Jakarta", p.City)
	assert.Equal(t, 200000.0, *p.Min)
	assert.Nil(t, p.Max)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 12, p.Limit)
}
