// internal/models/filters.go
package models

// SearchFilters is the structured form of a free-text property query.
// A nil pointer, empty string or nil slice means the field imposes no constraint.
type SearchFilters struct {
	MinPrice       *float64      `json:"minPrice,omitempty"`
	MaxPrice       *float64      `json:"maxPrice,omitempty"`
	Currency       string        `json:"currency,omitempty"`
	Bedrooms       *int          `json:"bedrooms,omitempty"`
	Bathrooms      *float64      `json:"bathrooms,omitempty"`
	MinArea        *float64      `json:"minArea,omitempty"`
	PropertyType   PropertyType  `json:"propertyType,omitempty"`
	ListingStatus  ListingStatus `json:"listingStatus,omitempty"`
	LocationTokens []string      `json:"locationTokens,omitempty"`
	FeatureTags    []string      `json:"featureTags,omitempty"`
}

func (f SearchFilters) IsEmpty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil &&
		f.Bedrooms == nil && f.Bathrooms == nil && f.MinArea == nil &&
		f.PropertyType == "" && f.ListingStatus == "" &&
		len(f.LocationTokens) == 0 && len(f.FeatureTags) == 0
}

// HasPrice reports whether either price bound is set.
func (f SearchFilters) HasPrice() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// FeatureMatch controls how featureTags are applied against a listing's features.
type FeatureMatch string

const (
	FeatureMatchAny FeatureMatch = "any"
	FeatureMatchAll FeatureMatch = "all"
)

func ParseFeatureMatch(s string) FeatureMatch {
	if FeatureMatch(s) == FeatureMatchAll {
		return FeatureMatchAll
	}
	return FeatureMatchAny
}
