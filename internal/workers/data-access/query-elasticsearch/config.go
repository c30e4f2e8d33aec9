// internal/workers/data-access/query-elasticsearch/config.go
package queryelasticsearch

import "time"

const (
	DefaultIndex = "vehicles"

	// DefaultMaxResultWindow mirrors index.max_result_window.
	DefaultMaxResultWindow = 10000
)

type Config struct {
	Timeout         time.Duration
	Index           string
	MaxResultWindow int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		Index:           DefaultIndex,
		MaxResultWindow: DefaultMaxResultWindow,
	}
}
