// internal/workers/rental/recommend-vehicles/config.go
package recommendvehicles

import "time"

// Finder backends accepted by NewFinder.
const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 45 * time.Second}
}
