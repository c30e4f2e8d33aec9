// internal/workers/data-access/query-postgresql/config.go
package querypostgresql

import "time"

type Config struct {
	Timeout time.Duration
	// SlowQuery logs a warning for queries at or above this duration. Zero disables it.
	SlowQuery time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		SlowQuery: 500 * time.Millisecond,
	}
}
