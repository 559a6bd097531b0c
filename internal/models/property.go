// internal/models/property.go
package models

import "time"

type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeCondo      PropertyType = "condo"
	PropertyTypeTownhouse  PropertyType = "townhouse"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
)

type ListingStatus string

const (
	ListingStatusForRent ListingStatus = "for-rent"
	ListingStatusForSale ListingStatus = "for-sale"
	ListingStatusRented  ListingStatus = "rented"
	ListingStatusSold    ListingStatus = "sold"
)

type Property struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	PropertyType  PropertyType  `json:"propertyType"`
	ListingStatus ListingStatus `json:"listingStatus"`
	Price         float64       `json:"price"`
	Currency      string        `json:"currency"`
	Bedrooms      int           `json:"bedrooms"`
	Bathrooms     float64       `json:"bathrooms"`
	AreaSqm       float64       `json:"areaSqm"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	Features      []string      `json:"features"`
	AgentID       string        `json:"agentId"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type SearchResult struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
}
