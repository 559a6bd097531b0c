// internal/workers/property/parse-property-query/handler_test.go
package parsepropertyquery

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		MaxQueryLength: 500,
		BaseCurrency:   "EUR",
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

// fakeConverter quotes everything against EUR.
type fakeConverter struct {
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeConverter) Convert(_ context.Context, amount float64, from, to string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if to != "EUR" {
		return 0, stderrors.New("unsupported target")
	}
	rate, ok := f.rates[from]
	if !ok {
		return 0, stderrors.New("unknown currency")
	}
	return amount / rate, nil
}

func createTestHandler(t *testing.T, conv CurrencyConverter) *Handler {
	return NewHandler(createTestConfig(), nil, conv, &testLogger{t: t})
}

func query(s string) *Input {
	return &Input{Query: &s}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		expected Output
	}{
		{
			name:  "euro query needs no conversion",
			input: query("2 bedroom flat for rent in Tirana under €900"),
			expected: Output{Filters: models.SearchFilters{
				MaxPrice:       floatPtr(900),
				Currency:       "EUR",
				Bedrooms:       intPtr(2),
				PropertyType:   models.PropertyTypeApartment,
				ListingStatus:  models.ListingStatusForRent,
				LocationTokens: []string{"Tirana"},
			}},
		},
		{
			name:  "dollar prices converted to base currency",
			input: query("3 bedroom apartment under $200000"),
			expected: Output{Filters: models.SearchFilters{
				MaxPrice:     floatPtr(160000),
				Currency:     "EUR",
				Bedrooms:     intPtr(3),
				PropertyType: models.PropertyTypeApartment,
			}},
		},
		{
			name:  "no currency leaves prices alone",
			input: query("houses for sale between 100000 and 150000"),
			expected: Output{Filters: models.SearchFilters{
				MinPrice:      floatPtr(100000),
				MaxPrice:      floatPtr(150000),
				PropertyType:  models.PropertyTypeHouse,
				ListingStatus: models.ListingStatusForSale,
			}},
		},
		{
			name:     "empty query",
			input:    query("   "),
			expected: Output{Empty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, &fakeConverter{rates: map[string]float64{"USD": 1.25}})
			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *output)
		})
	}
}

func TestHandler_Execute_ConversionFailureDropsPrices(t *testing.T) {
	conv := &fakeConverter{err: stderrors.New("rates endpoint down")}
	h := createTestHandler(t, conv)

	output, err := h.Execute(context.Background(), query("villa with pool between $300k and $400k"))
	require.NoError(t, err)

	assert.Nil(t, output.Filters.MinPrice)
	assert.Nil(t, output.Filters.MaxPrice)
	assert.Empty(t, output.Filters.Currency)
	assert.Equal(t, models.PropertyTypeHouse, output.Filters.PropertyType)
	assert.Equal(t, []string{"pool"}, output.Filters.FeatureTags)
	assert.False(t, output.Empty)
	assert.Equal(t, 1, conv.calls)
}

func TestHandler_Execute_WithoutConverter(t *testing.T) {
	h := createTestHandler(t, nil)
	output, err := h.Execute(context.Background(), query("condo under $500,000"))
	require.NoError(t, err)
	assert.Equal(t, floatPtr(500000), output.Filters.MaxPrice)
	assert.Equal(t, "USD", output.Filters.Currency)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"nil input", nil},
		{"missing query", &Input{}},
		{"too long", query(strings.Repeat("house ", 100))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, nil)
			output, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidSearchQuery))

			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.False(t, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_LengthCountsCharacters(t *testing.T) {
	h := createTestHandler(t, nil)
	h.config.MaxQueryLength = 10

	_, err := h.Execute(context.Background(), query("шшшшшшшшшш"))
	assert.NoError(t, err)

	_, err = h.Execute(context.Background(), query("шшшшшшшшшшш"))
	assert.Error(t, err)
}
