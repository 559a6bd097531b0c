// internal/workers/data-access/query-property-catalog/models.go
package querypropertycatalog

import "realestate-workers/internal/models"

type Input struct {
	Filters models.SearchFilters `json:"filters"`
}

type Output struct {
	Properties []models.Property `json:"properties"`
	Total      int               `json:"total"`
	Cached     bool              `json:"cached"`
}
