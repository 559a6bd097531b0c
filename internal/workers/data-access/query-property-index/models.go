// internal/workers/data-access/query-property-index/models.go
package querypropertyindex

import "realestate-workers/internal/models"

type Input struct {
	Filters models.SearchFilters `json:"filters"`
}

type Output struct {
	Properties []models.Property `json:"properties"`
	Total      int               `json:"total"`
	TotalHits  int64             `json:"totalHits"`
	Took       int64             `json:"took"` // milliseconds
}
