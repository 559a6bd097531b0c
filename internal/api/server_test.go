// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	commonerrors "realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/metrics"
	"realestate-workers/internal/common/observability"
	"realestate-workers/internal/models"
	parsepropertyquery "realestate-workers/internal/workers/property/parse-property-query"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSearcher struct {
	result  *models.SearchResult
	err     error
	filters models.SearchFilters
	calls   int
}

func (f *fakeSearcher) Search(_ context.Context, filters models.SearchFilters) (*models.SearchResult, error) {
	f.calls++
	f.filters = filters
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newParser(t *testing.T) *parsepropertyquery.Handler {
	return parsepropertyquery.NewHandler(&parsepropertyquery.Config{
		Timeout:        time.Second,
		MaxQueryLength: 100,
	}, nil, nil, logger.NewTestLogger(t))
}

func newTestServer(t *testing.T, searcher Searcher, checks map[string]Pinger) http.Handler {
	t.Helper()
	s := NewServer(Config{Backend: "postgres"}, newParser(t), searcher, checks, nil, logger.NewTestLogger(t))
	return s.Router()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/properties/smart-search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSmartSearch_Success(t *testing.T) {
	searcher := &fakeSearcher{result: &models.SearchResult{
		Properties: []models.Property{{ID: "p-1", Title: "Flat in Tirana", Bedrooms: 3}},
		Total:      1,
	}}
	h := newTestServer(t, searcher, nil)

	rr := post(t, h, `{"query": "3 bedroom apartment under $200000"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp smartSearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, "p-1", resp.Properties[0].ID)
	require.NotNil(t, resp.Filters.Bedrooms)
	assert.Equal(t, 3, *resp.Filters.Bedrooms)
	assert.Equal(t, models.PropertyTypeApartment, resp.Filters.PropertyType)

	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, resp.Filters, searcher.filters)
}

func TestSmartSearch_EmptyResultEncodesArray(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{result: &models.SearchResult{}}, nil)

	rr := post(t, h, `{"query": ""}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"properties":[]`)
}

func TestSmartSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"invalid json", `{"query":`, "invalid request body"},
		{"missing query", `{}`, "query is required"},
		{"null query", `{"query": null}`, "query is required"},
		{"number query", `{"query": 42}`, "query must be a string"},
		{"array query", `{"query": ["house"]}`, "query must be a string"},
		{"too long", `{"query": "` + strings.Repeat("a", 101) + `"}`, "limit is 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{result: &models.SearchResult{}}
			rr := post(t, newTestServer(t, searcher, nil), tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.msg)
			assert.Zero(t, searcher.calls)
		})
	}
}

func TestSmartSearch_BodyTooLarge(t *testing.T) {
	searcher := &fakeSearcher{result: &models.SearchResult{}}
	s := NewServer(Config{Backend: "postgres", MaxBodyBytes: 64}, newParser(t), searcher, nil, nil, logger.NewTestLogger(t))

	rr := post(t, s.Router(), `{"query": "`+strings.Repeat("house ", 20)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "exceeds 64 bytes")
	assert.Zero(t, searcher.calls)
}

func TestSmartSearch_BackendError(t *testing.T) {
	searcher := &fakeSearcher{err: commonerrors.NewQueryTimeoutError("search properties")}
	rr := post(t, newTestServer(t, searcher, nil), `{"query": "house in Durres"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(commonerrors.ErrCodeQueryTimeout), resp.Code)
}

func TestSmartSearch_RecordsObservability(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	obs, err := observability.NewWithReader("test", reader)
	require.NoError(t, err)

	s := NewServer(Config{Backend: "elasticsearch"}, newParser(t),
		&fakeSearcher{result: &models.SearchResult{Total: 0}}, nil, obs, logger.NewTestLogger(t))
	h := s.Router()
	post(t, h, `{"query": "villa"}`)
	post(t, h, `{}`)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "search.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(t, &fakeSearcher{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReady(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, map[string]Pinger{"postgres": fakePinger{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"postgres":"ok"}`, rr.Body.String())

	h = newTestServer(t, &fakeSearcher{}, map[string]Pinger{"postgres": fakePinger{err: errors.New("connection refused")}})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")
}

func TestMetricsEndpointAndMiddleware(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, nil)

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	assert.Equal(t, before+1, after)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	h := newTestServer(t, &fakeSearcher{}, nil)
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404")))
}
