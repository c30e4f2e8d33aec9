// internal/workers/notification/send-recommendation/config.go
package sendrecommendation

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
	SenderID     string
	MaxVehicles  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		MaxVehicles: 5,
	}
}
