// internal/workers/rental/list-branches/models.go
package listbranches

import "rental-workers/internal/models"

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

type Input struct {
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	Branches []models.Branch `json:"branches"`
	Source   string          `json:"source"`
}
