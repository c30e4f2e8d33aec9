// internal/workers/data-access/query-postgresql/queries/branches.go
package queries

import (
	"context"
	"database/sql"

	"rental-workers/internal/models"
)

// ListBranches returns every branch ordered by city, then name.
func ListBranches(ctx context.Context, db *sql.DB) ([]models.Branch, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, city, address, latitude, longitude, COALESCE("phoneNumber", '')
		FROM "Branches"
		ORDER BY city ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := []models.Branch{}
	for rows.Next() {
		var (
			b        models.Branch
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.City, &b.Address, &lat, &lng, &b.PhoneNumber); err != nil {
			return nil, err
		}
		if lat.Valid {
			b.Latitude = &lat.Float64
		}
		if lng.Valid {
			b.Longitude = &lng.Float64
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}
