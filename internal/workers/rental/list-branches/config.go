// internal/workers/rental/list-branches/config.go
package listbranches

import "time"

const CacheKey = "branches:all"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		CacheTTL: 300 * time.Second,
	}
}
