// internal/workers/data-access/query-property-index/config.go
package querypropertyindex

import (
	"time"

	"realestate-workers/internal/models"
)

type Config struct {
	Timeout      time.Duration
	Index        string
	MaxResults   int
	FeatureMatch models.FeatureMatch
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		Index:        "properties",
		MaxResults:   50,
		FeatureMatch: models.FeatureMatchAny,
	}
}
