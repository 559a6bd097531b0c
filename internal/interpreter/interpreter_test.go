// internal/interpreter/interpreter_test.go
package interpreter

import (
	"strings"
	"sync"
	"testing"

	"realestate-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestInterpret_ReferenceQueries(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected models.SearchFilters
	}{
		{
			name:  "bedrooms, type and upper price",
			query: "3 bedroom apartment under $200000",
			expected: models.SearchFilters{
				MaxPrice:     floatPtr(200000),
				Currency:     "USD",
				Bedrooms:     intPtr(3),
				PropertyType: models.PropertyTypeApartment,
			},
		},
		{
			name:  "status and between range",
			query: "houses for sale between 100000 and 150000",
			expected: models.SearchFilters{
				MinPrice:      floatPtr(100000),
				MaxPrice:      floatPtr(150000),
				PropertyType:  models.PropertyTypeHouse,
				ListingStatus: models.ListingStatusForSale,
			},
		},
		{
			name:  "features and location",
			query: "apartment with pool and garage in Tirana",
			expected: models.SearchFilters{
				PropertyType:   models.PropertyTypeApartment,
				FeatureTags:    []string{"pool", "garage"},
				LocationTokens: []string{"Tirana"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Interpret(tt.query))
		})
	}
}

func TestInterpret_EmptyInput(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n", "?!...", "the a of"} {
		f := Interpret(q)
		assert.True(t, f.IsEmpty(), "query %q", q)
		assert.Equal(t, models.SearchFilters{}, f, "query %q", q)
	}
}

func TestInterpret_Deterministic(t *testing.T) {
	query := "2 bed 1 bath flat for rent with balcony, parking and lift near Durres under €800"
	first := Interpret(query)
	for i := 0; i < 50; i++ {
		require.Equal(t, first, Interpret(query))
	}
}

func TestInterpret_ConcurrentUse(t *testing.T) {
	query := "3 bedroom villa with pool in Vlore between 200k and 350k"
	expected := Interpret(query)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, expected, Interpret(query))
		}()
	}
	wg.Wait()
}

func TestInterpret_CaseInsensitive(t *testing.T) {
	lower := Interpret("house for sale with garden under 300k")
	upper := Interpret("HOUSE FOR SALE WITH GARDEN UNDER 300K")

	assert.Equal(t, models.PropertyTypeHouse, upper.PropertyType)
	assert.Equal(t, lower.PropertyType, upper.PropertyType)
	assert.Equal(t, lower.ListingStatus, upper.ListingStatus)
	assert.Equal(t, lower.FeatureTags, upper.FeatureTags)
	assert.Equal(t, lower.MaxPrice, upper.MaxPrice)
}

func TestInterpret_Prices(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		min, max *float64
		currency string
	}{
		{"under", "house under 250000", nil, floatPtr(250000), ""},
		{"below with currency word", "flat below 90000 euros", nil, floatPtr(90000), "EUR"},
		{"less than", "condo less than $1,200,000", nil, floatPtr(1200000), "USD"},
		{"no more than", "apartment for no more than 500 per month", nil, floatPtr(500), ""},
		{"within", "flat within €900", nil, floatPtr(900), "EUR"},
		{"over", "villa over 1m", floatPtr(1000000), nil, ""},
		{"at least", "house at least 150k", floatPtr(150000), nil, ""},
		{"from alone", "apartments from €75.000", floatPtr(75000), nil, "EUR"},
		{"from to", "land from 20k to 40k", floatPtr(20000), floatPtr(40000), ""},
		{"swapped between", "house between 300000 and 200000", floatPtr(200000), floatPtr(300000), ""},
		{"dash range with magnitude", "flat 100-200k", floatPtr(100000), floatPtr(200000), ""},
		{"currency range", "$150,000 to $225,000 townhouse", floatPtr(150000), floatPtr(225000), "USD"},
		{"decimal millions", "penthouse under 1.5m", nil, floatPtr(1500000), ""},
		{"magnitude word", "house under 1.2 million", nil, floatPtr(1200000), ""},
		{"detached k", "studio under 90 k", nil, floatPtr(90000), ""},
		{"attached currency code", "house under 200000usd", nil, floatPtr(200000), "USD"},
		{"bare budget", "apartment 120k", nil, floatPtr(120000), ""},
		{"lek", "apartament 8000000 lek", nil, floatPtr(8000000), "ALL"},
		{"pound symbol", "flat over £400,000", floatPtr(400000), nil, "GBP"},
		{"zero ignored", "house under 0", nil, nil, ""},
		{"contradictory bounds swapped", "over 400k under 300k", floatPtr(300000), floatPtr(400000), ""},
		{"whole m needs a cue", "house 120m", nil, nil, ""},
		{"whole m with currency", "house $2m", nil, floatPtr(2000000), "USD"},
		{"decimal m stands alone", "villa 1.5m", nil, floatPtr(1500000), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Interpret(tt.query)
			assert.Equal(t, tt.min, f.MinPrice, "minPrice")
			assert.Equal(t, tt.max, f.MaxPrice, "maxPrice")
			assert.Equal(t, tt.currency, f.Currency, "currency")
			if f.MinPrice != nil && f.MaxPrice != nil {
				assert.LessOrEqual(t, *f.MinPrice, *f.MaxPrice)
			}
		})
	}
}

func TestInterpret_BareNumbersAreNotPrices(t *testing.T) {
	f := Interpret("house built 1995")
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.Empty(t, f.LocationTokens)
}

func TestInterpret_Rooms(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		bedrooms  *int
		bathrooms *float64
	}{
		{"bed and bath", "3 bed 2 bath house", intPtr(3), floatPtr(2)},
		{"plus form", "3+ bedrooms", intPtr(3), nil},
		{"detached plus", "4 + beds", intPtr(4), nil},
		{"compact", "2br 1ba condo", intPtr(2), floatPtr(1)},
		{"number words", "two bedroom flat", intPtr(2), nil},
		{"unit first", "bedrooms 3 bathrooms 2", intPtr(3), floatPtr(2)},
		{"fractional bath", "house with 2.5 baths", nil, floatPtr(2.5)},
		{"zero bedrooms", "0 bedroom studio", intPtr(0), nil},
		{"huge bedroom count ignored", "99999999999999999999 bedrooms", nil, nil},
		{"huge bathroom count ignored", "house with 5000 baths", nil, nil},
		{"after a comma", "house, 2 baths", nil, floatPtr(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Interpret(tt.query)
			assert.Equal(t, tt.bedrooms, f.Bedrooms, "bedrooms")
			assert.Equal(t, tt.bathrooms, f.Bathrooms, "bathrooms")
		})
	}
}

func TestInterpret_RoomAdjacencyBeatsPriceCue(t *testing.T) {
	f := Interpret("apartment under 3 bedrooms")
	assert.Equal(t, intPtr(3), f.Bedrooms)
	assert.Nil(t, f.MaxPrice)

	f = Interpret("house between 2 and 3 bedrooms")
	assert.Equal(t, intPtr(3), f.Bedrooms)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)

	f = Interpret("max 4 beds under 500k")
	assert.Equal(t, intPtr(4), f.Bedrooms)
	assert.Equal(t, floatPtr(500000), f.MaxPrice)
}

func TestInterpret_PriceFollowedByRooms(t *testing.T) {
	f := Interpret("apartment under $200k and 2 bedrooms")
	assert.Nil(t, f.MinPrice)
	assert.Equal(t, floatPtr(200000), f.MaxPrice)
	assert.Equal(t, "USD", f.Currency)
	assert.Equal(t, intPtr(2), f.Bedrooms)

	f = Interpret("flat under €900 and 2 bathrooms")
	assert.Equal(t, floatPtr(900), f.MaxPrice)
	assert.Equal(t, "EUR", f.Currency)
	assert.Equal(t, floatPtr(2), f.Bathrooms)

	// A plain number paired with rooms is still not a price.
	f = Interpret("house 2 and 3 bedrooms")
	assert.Nil(t, f.MaxPrice)
	assert.Equal(t, intPtr(3), f.Bedrooms)
}

func TestInterpret_Area(t *testing.T) {
	assert.Equal(t, floatPtr(120), Interpret("apartment 120m2").MinArea)
	assert.Equal(t, floatPtr(85), Interpret("flat over 85 sqm").MinArea)
	assert.Nil(t, Interpret("flat over 85 sqm").MinPrice)
	assert.Equal(t, floatPtr(92.9), Interpret("house 1000 sq ft").MinArea)
}

func TestInterpret_Categories(t *testing.T) {
	tests := []struct {
		query  string
		ptype  models.PropertyType
		status models.ListingStatus
	}{
		{"flat to rent", models.PropertyTypeApartment, models.ListingStatusForRent},
		{"condos for lease", models.PropertyTypeCondo, models.ListingStatusForRent},
		{"townhouse to buy", models.PropertyTypeTownhouse, models.ListingStatusForSale},
		{"row house", models.PropertyTypeTownhouse, ""},
		{"plots of land", models.PropertyTypeLand, ""},
		{"office space rental", models.PropertyTypeCommercial, models.ListingStatusForRent},
		{"sold homes", models.PropertyTypeHouse, models.ListingStatusSold},
		{"rented apartments", models.PropertyTypeApartment, models.ListingStatusRented},
		{"house or apartment", models.PropertyTypeHouse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := Interpret(tt.query)
			assert.Equal(t, tt.ptype, f.PropertyType)
			assert.Equal(t, tt.status, f.ListingStatus)
			assert.Empty(t, f.LocationTokens)
		})
	}
}

func TestInterpret_Features(t *testing.T) {
	f := Interpret("villa with swimming pool, pool house garage and a garden")
	assert.Equal(t, []string{"pool", "garage", "garden"}, f.FeatureTags)

	f = Interpret("furnished flat with air conditioning, no pets")
	assert.Equal(t, []string{"furnished", "air-conditioning"}, f.FeatureTags)
	assert.Empty(t, f.LocationTokens)

	f = Interpret("apartment without elevator")
	assert.Nil(t, f.FeatureTags)
}

func TestInterpret_Locations(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"capitalized", "Cheap flat in Durres near the Beach", []string{"Durres", "Beach"}},
		{"multi word", "house in Los Angeles with garage", []string{"Los Angeles"}},
		{"lowercase fallback", "apartment in tirana", []string{"tirana"}},
		{"deduplicated", "Tirana flat, Tirana center", []string{"Tirana"}},
		{"mixed case skips lowercase words", "Apartment in Tirana close to blloku", []string{"Tirana"}},
		{"multiple places", "house in Durres or Vlore", []string{"Durres", "Vlore"}},
		{"comma separated", "apartment in Tirana, Albania", []string{"Tirana", "Albania"}},
		{"comma list", "house in Durres, Tirana or Vlore", []string{"Durres", "Tirana", "Vlore"}},
		{"semicolon and slash", "flat in Shkoder; Lezhe/Kruje", []string{"Shkoder", "Lezhe", "Kruje"}},
		{"sentence break", "Flat in Tirana. Garden please", []string{"Tirana"}},
		{"numbers never locations", "house 2nd floor", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Interpret(tt.query).LocationTokens)
		})
	}
}

func TestInterpret_CommaSeparatedClauses(t *testing.T) {
	f := Interpret("3 bedroom house, 2 baths, under 450,000 in Austin, Texas")
	assert.Equal(t, intPtr(3), f.Bedrooms)
	assert.Equal(t, floatPtr(2), f.Bathrooms)
	assert.Equal(t, floatPtr(450000), f.MaxPrice)
	assert.Equal(t, models.PropertyTypeHouse, f.PropertyType)
	assert.Equal(t, []string{"Austin", "Texas"}, f.LocationTokens)
}

func TestInterpret_NeverPanics(t *testing.T) {
	inputs := []string{
		"$", "$$$ 100", "between", "between and", "from to", "3", "+", "- - -",
		"bedrooms", "under under under", "1.2.3.4", "9999999999999999999999999",
		strings.Repeat("house ", 500), "€€€", "١٢٣ شقة", "квартира 100к",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Interpret(in) }, "input %q", in)
	}
}

func TestNew_CustomVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	vocab.Features["solar panels"] = "solar"
	vocab.PropertyTypes["chalet"] = models.PropertyTypeHouse

	in := New(vocab)
	f := in.Interpret("chalet with solar panels")
	assert.Equal(t, models.PropertyTypeHouse, f.PropertyType)
	assert.Equal(t, []string{"solar"}, f.FeatureTags)

	// The default tables are untouched.
	assert.Empty(t, Interpret("chalet with solar panels").FeatureTags)
}

func TestNew_NilVocabularyUsesDefaults(t *testing.T) {
	f := New(nil).Interpret("3 bedroom apartment under $200000")
	assert.Equal(t, Interpret("3 bedroom apartment under $200000"), f)
}

func BenchmarkInterpret(b *testing.B) {
	query := "3 bed 2 bath house for sale with pool and garage in Los Angeles between $400k and $650k"
	for i := 0; i < b.N; i++ {
		Interpret(query)
	}
}
