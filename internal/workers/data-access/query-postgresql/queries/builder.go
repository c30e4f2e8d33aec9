// internal/workers/data-access/query-postgresql/queries/builder.go
package queries

import (
	"fmt"
	"strings"

	"rental-workers/internal/recommendation"
)

const vehicleColumns = `v.id, v."BranchId", v.name, v.brand, v.type, v."plateNumber", v.seat,
	v.transmission, v."fuelType", v.year, v."dailyPrice", v.status,
	COALESCE(v."imgUrl", ''), COALESCE(v.description, ''), v."createdAt", v."updatedAt",
	b.id, b.name, b.city, b.address`

const vehicleFrom = `FROM "Vehicles" v LEFT JOIN "Branches" b ON b.id = v."BranchId"`

// queryBuilder collects AND-ed conditions with positional $n arguments.
type queryBuilder struct {
	conditions []string
	args       []interface{}
	argID      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{argID: 1}
}

// addCondition formats condition with the field name and the next
// placeholder index, then records arg.
func (qb *queryBuilder) addCondition(condition, field string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, field, qb.argID))
	qb.args = append(qb.args, arg)
	qb.argID++
}

// addAnyILike matches term against every column, sharing one placeholder.
func (qb *queryBuilder) addAnyILike(term string, negate bool, columns ...string) {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, qb.argID)
	}
	cond := "(" + strings.Join(parts, " OR ") + ")"
	if negate {
		cond = "NOT " + cond
	}
	qb.conditions = append(qb.conditions, cond)
	qb.args = append(qb.args, "%"+escapeLike(term)+"%")
	qb.argID++
}

// addPriceRange binds the bounds as numeric; the column is an integer.
func (qb *queryBuilder) addPriceRange(field string, min, max *float64) {
	if min != nil {
		qb.addCondition("%s >= $%d::numeric", field, *min)
	}
	if max != nil {
		qb.addCondition("%s <= $%d::numeric", field, *max)
	}
}

// placeholder reserves the next argument slot outside the WHERE clause.
func (qb *queryBuilder) placeholder(arg interface{}) string {
	p := fmt.Sprintf("$%d", qb.argID)
	qb.args = append(qb.args, arg)
	qb.argID++
	return p
}

func (qb *queryBuilder) where() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// RenderPredicates turns recommendation predicates into a parameterized
// SELECT over vehicles joined with their branch, cheapest first.
func RenderPredicates(p recommendation.Predicates) (string, []interface{}) {
	qb := newQueryBuilder()

	if p.Price != nil {
		qb.addPriceRange(`v."dailyPrice"`, p.Price.Min, p.Price.Max)
	}
	if p.TypeHint != nil && *p.TypeHint != "" {
		qb.addAnyILike(*p.TypeHint, false, "v.type", "v.name", "v.brand")
	}
	if p.MinSeats != nil {
		qb.addCondition("%s >= $%d", "v.seat", *p.MinSeats)
	}
	for _, term := range p.Exclude {
		qb.addAnyILike(term, true, "v.name", "v.brand", "v.type")
	}
	if p.BranchCity != nil {
		qb.addCondition("%s = $%d", "b.city", *p.BranchCity)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = recommendation.DefaultResultLimit
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY v."dailyPrice" ASC, v.id ASC LIMIT %s`,
		vehicleColumns, vehicleFrom, qb.where(), qb.placeholder(limit))
	return query, qb.args
}
