// internal/workers/data-access/query-property-catalog/config.go
package querypropertycatalog

import (
	"time"

	"realestate-workers/internal/models"
)

type Config struct {
	Timeout      time.Duration
	MaxResults   int
	FeatureMatch models.FeatureMatch
	// CacheTTL of zero disables the result cache.
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		MaxResults:   50,
		FeatureMatch: models.FeatureMatchAny,
	}
}
