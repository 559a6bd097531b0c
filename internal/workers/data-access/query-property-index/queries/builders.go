package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"realestate-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex = errors.New("index name is required")
	ErrIndexMissing = errors.New("index does not exist")
)

// locationFields are matched as phrases against every location token.
var locationFields = []string{"city", "state", "address"}

// BuildSearch renders filters as a search body: hard constraints go in a
// bool filter, location tokens in a should clause that needs one match.
func BuildSearch(f models.SearchFilters, policy models.FeatureMatch, size int) map[string]interface{} {
	var filter []interface{}

	if f.MinPrice != nil || f.MaxPrice != nil {
		bounds := map[string]interface{}{}
		if f.MinPrice != nil {
			bounds["gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			bounds["lte"] = *f.MaxPrice
		}
		filter = append(filter, rangeClause("price", bounds))
	}
	if f.Bedrooms != nil {
		filter = append(filter, rangeClause("bedrooms", map[string]interface{}{"gte": *f.Bedrooms}))
	}
	if f.Bathrooms != nil {
		filter = append(filter, rangeClause("bathrooms", map[string]interface{}{"gte": *f.Bathrooms}))
	}
	if f.MinArea != nil {
		filter = append(filter, rangeClause("area_sqm", map[string]interface{}{"gte": *f.MinArea}))
	}
	if f.PropertyType != "" {
		filter = append(filter, termClause("property_type", string(f.PropertyType)))
	}
	if f.ListingStatus != "" {
		filter = append(filter, termClause("listing_status", string(f.ListingStatus)))
	}

	if len(f.FeatureTags) > 0 {
		if policy == models.FeatureMatchAll {
			for _, tag := range f.FeatureTags {
				filter = append(filter, termClause("features", tag))
			}
		} else {
			filter = append(filter, map[string]interface{}{
				"terms": map[string]interface{}{"features": f.FeatureTags},
			})
		}
	}

	var should []interface{}
	for _, token := range f.LocationTokens {
		for _, field := range locationFields {
			should = append(should, map[string]interface{}{
				"match_phrase": map[string]interface{}{field: token},
			})
		}
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(filter) > 0 || len(should) > 0 {
		boolQuery := map[string]interface{}{}
		if len(filter) > 0 {
			boolQuery["filter"] = filter
		}
		if len(should) > 0 {
			boolQuery["should"] = should
			boolQuery["minimum_should_match"] = 1
		}
		query = map[string]interface{}{"bool": boolQuery}
	}

	return map[string]interface{}{
		"query": query,
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
		"size": size,
	}
}

func rangeClause(field string, bounds map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"range": map[string]interface{}{field: bounds}}
}

func termClause(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

// document is the indexed form of a listing.
type document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PropertyType  string    `json:"property_type"`
	ListingStatus string    `json:"listing_status"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     float64   `json:"bathrooms"`
	AreaSqm       float64   `json:"area_sqm"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Features      []string  `json:"features"`
	AgentID       string    `json:"agent_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (d document) toProperty(id string) models.Property {
	if d.ID != "" {
		id = d.ID
	}
	return models.Property{
		ID:            id,
		Title:         d.Title,
		Description:   d.Description,
		PropertyType:  models.PropertyType(d.PropertyType),
		ListingStatus: models.ListingStatus(d.ListingStatus),
		Price:         d.Price,
		Currency:      d.Currency,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		AreaSqm:       d.AreaSqm,
		Address:       d.Address,
		City:          d.City,
		State:         d.State,
		Features:      d.Features,
		AgentID:       d.AgentID,
		CreatedAt:     d.CreatedAt,
	}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type SearchResult struct {
	Properties []models.Property
	TotalHits  int64
	Took       int64
}

// Search executes the body built by BuildSearch against index.
func Search(ctx context.Context, client *elasticsearch.Client, index string, f models.SearchFilters, policy models.FeatureMatch, size int) (*SearchResult, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}

	body, err := json.Marshal(BuildSearch(f, policy, size))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexMissing, index)
	}
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("search %s: %s: %s", index, res.Status(), string(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &SearchResult{
		Properties: make([]models.Property, 0, len(parsed.Hits.Hits)),
		TotalHits:  parsed.Hits.Total.Value,
		Took:       parsed.Took,
	}
	for _, hit := range parsed.Hits.Hits {
		out.Properties = append(out.Properties, hit.Source.toProperty(hit.ID))
	}
	return out, nil
}
