// internal/workers/data-access/query-property-catalog/cache.go
package querypropertycatalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"realestate-workers/internal/models"
)

const cacheKeyPrefix = "property:search:"

// ResultCache is satisfied by *database.RedisClient. GetJSON returns
// database.ErrCacheMiss for absent keys.
type ResultCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheKey hashes everything that shapes the result set.
func CacheKey(f models.SearchFilters, policy models.FeatureMatch, limit int) string {
	payload, _ := json.Marshal(struct {
		Filters models.SearchFilters `json:"filters"`
		Policy  models.FeatureMatch  `json:"policy"`
		Limit   int                  `json:"limit"`
	}{f, policy, limit})
	sum := md5.Sum(payload)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
