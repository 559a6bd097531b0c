package querypropertyindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		Index:        "properties",
		MaxResults:   50,
		FeatureMatch: models.FeatureMatchAny,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestHandler(t *testing.T, handler http.HandlerFunc) *Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewHandler(createTestConfig(), es, createTestLogger(t))
}

const searchResponse = `{
  "took": 4,
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "hits": [
      {"_id": "p-1", "_source": {
        "title": "Flat near the lake", "property_type": "apartment", "listing_status": "for-rent",
        "price": 750, "currency": "EUR", "bedrooms": 2, "bathrooms": 1, "area_sqm": 70,
        "city": "Tirana", "state": "Tirana", "features": ["balcony"], "agent_id": "a-9",
        "created_at": "2026-04-02T08:00:00Z"
      }},
      {"_id": "p-2", "_source": {
        "id": "listing-2", "title": "Studio", "property_type": "apartment", "listing_status": "for-rent",
        "price": 500, "currency": "EUR", "city": "Tirana", "created_at": "2026-04-01T08:00:00Z"
      }}
    ]
  }
}`

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	h := createTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(searchResponse))
	})

	two := 2
	output, err := h.Execute(context.Background(), &Input{Filters: models.SearchFilters{
		Bedrooms:       &two,
		ListingStatus:  models.ListingStatusForRent,
		LocationTokens: []string{"Tirana"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "/properties/_search", gotPath)
	assert.EqualValues(t, 50, gotBody["size"])
	assert.Contains(t, gotBody["query"], "bool")

	assert.Equal(t, 2, output.Total)
	assert.Equal(t, int64(2), output.TotalHits)
	assert.Equal(t, int64(4), output.Took)

	first := output.Properties[0]
	assert.Equal(t, "p-1", first.ID)
	assert.Equal(t, models.PropertyTypeApartment, first.PropertyType)
	assert.Equal(t, 70.0, first.AreaSqm)
	assert.Equal(t, []string{"balcony"}, first.Features)
	assert.Equal(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, "listing-2", output.Properties[1].ID)
}

func TestHandler_Search(t *testing.T) {
	h := createTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchResponse))
	})

	result, err := h.Search(context.Background(), models.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Properties, 2)
}

// ==========================
// Error Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected errors.ErrorCode
	}{
		{
			name:     "missing index",
			status:   http.StatusNotFound,
			body:     `{"error":{"type":"index_not_found_exception"},"status":404}`,
			expected: errors.ErrCodeIndexNotFound,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"error":{"type":"parsing_exception"},"status":400}`,
			expected: errors.ErrCodeSearchQueryFailed,
		},
		{
			name:     "malformed response",
			status:   http.StatusOK,
			body:     `{"hits": [`,
			expected: errors.ErrCodeSearchQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			output, err := h.Execute(context.Background(), &Input{})
			assert.Nil(t, output)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.expected), "got %v", err)
		})
	}
}

func TestHandler_Execute_MissingIndexName(t *testing.T) {
	h := createTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	h.config.Index = ""

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeIndexNotFound))
}

func TestHandler_Execute_Timeout(t *testing.T) {
	h := createTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchTimeout))
}
