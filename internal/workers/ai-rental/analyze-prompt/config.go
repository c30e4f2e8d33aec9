// internal/workers/ai-rental/analyze-prompt/config.go
package analyzeprompt

import (
	"time"

	"rental-workers/internal/recommendation"
)

type Config struct {
	Timeout time.Duration
	Options recommendation.Options
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Options: recommendation.DefaultOptions(),
	}
}
