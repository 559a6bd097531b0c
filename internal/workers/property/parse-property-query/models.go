// internal/workers/property/parse-property-query/models.go
package parsepropertyquery

import "realestate-workers/internal/models"

type Input struct {
	// Query is a pointer so a missing variable is told apart from "".
	Query *string `json:"query"`
}

type Output struct {
	Filters models.SearchFilters `json:"filters"`
	Empty   bool                 `json:"empty"`
}
