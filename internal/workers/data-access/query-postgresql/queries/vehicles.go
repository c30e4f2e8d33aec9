// internal/workers/data-access/query-postgresql/queries/vehicles.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"rental-workers/internal/models"
	"rental-workers/internal/recommendation"
)

const (
	DefaultCatalogLimit = 9
	MaxCatalogLimit     = 24

	// MaxCatalogPage keeps (page-1)*limit well inside int4 OFFSET range.
	MaxCatalogPage = 10000
)

var ErrNotFound = errors.New("record not found")

// sortColumns whitelists catalog sort keys.
var sortColumns = map[string]string{
	"createdAt":  `v."createdAt"`,
	"dailyPrice": `v."dailyPrice"`,
	"year":       "v.year",
	"name":       "v.name",
}

// CatalogParams are the public catalog listing filters. Zero values mean
// "not set".
type CatalogParams struct {
	Q     string
	City  string
	Min   *float64
	Max   *float64
	Sort  string
	Order string
	Page  int
	Limit int
}

// Normalize clamps paging and whitelists sort and order.
func (p CatalogParams) Normalize() CatalogParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxCatalogPage {
		p.Page = MaxCatalogPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultCatalogLimit
	}
	if p.Limit > MaxCatalogLimit {
		p.Limit = MaxCatalogLimit
	}
	if _, ok := sortColumns[p.Sort]; !ok {
		p.Sort = "createdAt"
	}
	if strings.EqualFold(p.Order, "ASC") {
		p.Order = "ASC"
	} else {
		p.Order = "DESC"
	}
	return p
}

type CatalogMeta struct {
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
	Sort       string   `json:"sort"`
	Order      string   `json:"order"`
	Q          string   `json:"q"`
	City       string   `json:"city"`
	Min        *float64 `json:"min"`
	Max        *float64 `json:"max"`
}

type CatalogPage struct {
	Data []models.Vehicle `json:"data"`
	Meta CatalogMeta      `json:"meta"`
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (models.Vehicle, error) {
	var (
		v        models.Vehicle
		branchID sql.NullInt64
		bID      sql.NullInt64
		bName    sql.NullString
		bCity    sql.NullString
		bAddress sql.NullString
	)
	err := row.Scan(
		&v.ID, &branchID, &v.Name, &v.Brand, &v.Type, &v.PlateNumber, &v.Seat,
		&v.Transmission, &v.FuelType, &v.Year, &v.DailyPrice, &v.Status,
		&v.ImgURL, &v.Description, &v.CreatedAt, &v.UpdatedAt,
		&bID, &bName, &bCity, &bAddress,
	)
	if err != nil {
		return v, err
	}
	if branchID.Valid {
		id := branchID.Int64
		v.BranchID = &id
	}
	if bID.Valid {
		v.Branch = &models.Branch{
			ID:      bID.Int64,
			Name:    bName.String,
			City:    bCity.String,
			Address: bAddress.String,
		}
	}
	return v, nil
}

func scanVehicles(rows *sql.Rows) ([]models.Vehicle, error) {
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// ListVehicles pages through the catalog. q matches name, brand, type and
// plate number. A max price without a min is read as [0, max].
func ListVehicles(ctx context.Context, db *sql.DB, p CatalogParams) (*CatalogPage, error) {
	p = p.Normalize()
	qb := newQueryBuilder()

	if p.Max != nil {
		min := 0.0
		if p.Min != nil {
			min = *p.Min
		}
		qb.addPriceRange(`v."dailyPrice"`, &min, p.Max)
	} else if p.Min != nil {
		qb.addPriceRange(`v."dailyPrice"`, p.Min, nil)
	}
	if q := strings.TrimSpace(p.Q); q != "" {
		qb.addAnyILike(q, false, "v.name", "v.brand", "v.type", `v."plateNumber"`)
	}
	if city := strings.TrimSpace(p.City); city != "" {
		qb.addCondition("%s = $%d", "b.city", city)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s %s`, vehicleFrom, qb.where())
	if err := db.QueryRowContext(ctx, countQuery, qb.args...).Scan(&total); err != nil {
		return nil, err
	}

	where := qb.where()
	limit := qb.placeholder(p.Limit)
	offset := qb.placeholder((p.Page - 1) * p.Limit)
	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s %s, v.id %s LIMIT %s OFFSET %s`,
		vehicleColumns, vehicleFrom, where, sortColumns[p.Sort], p.Order, p.Order, limit, offset)

	rows, err := db.QueryContext(ctx, query, qb.args...)
	if err != nil {
		return nil, err
	}
	vehicles, err := scanVehicles(rows)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	if totalPages < 1 {
		totalPages = 1
	}

	return &CatalogPage{
		Data: vehicles,
		Meta: CatalogMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
			Sort:       p.Sort,
			Order:      p.Order,
			Q:          p.Q,
			City:       p.City,
			Min:        p.Min,
			Max:        p.Max,
		},
	}, nil
}

// GetVehicle returns one vehicle with its branch or ErrNotFound.
func GetVehicle(ctx context.Context, db *sql.DB, id int64) (*models.Vehicle, error) {
	row := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s %s WHERE v.id = $1`, vehicleColumns, vehicleFrom), id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: vehicle %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FindVehicles runs one rendered predicate set.
func FindVehicles(ctx context.Context, db *sql.DB, p recommendation.Predicates) ([]models.Vehicle, error) {
	query, args := RenderPredicates(p)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanVehicles(rows)
}
