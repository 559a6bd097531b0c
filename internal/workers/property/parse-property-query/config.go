// internal/workers/property/parse-property-query/config.go
package parsepropertyquery

import "time"

type Config struct {
	Timeout        time.Duration
	MaxQueryLength int
	// BaseCurrency is the catalog currency. Empty disables conversion.
	BaseCurrency string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		MaxQueryLength: 500,
	}
}
