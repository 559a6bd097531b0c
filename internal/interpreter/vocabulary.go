// internal/interpreter/vocabulary.go
package interpreter

import (
	"strings"

	"realestate-workers/internal/models"
)

// PriceCue classifies a phrase that introduces a price.
type PriceCue int

const (
	CueNone PriceCue = iota
	CueLower
	CueUpper
	CueRange
)

// UnitKind classifies what a number followed by a unit measures.
type UnitKind int

const (
	UnitBedroom UnitKind = iota + 1
	UnitBathroom
	UnitArea
)

// Unit is a measure unit. Factor converts area units to square meters.
type Unit struct {
	Kind   UnitKind
	Factor float64
}

// Vocabulary holds every table the interpreter matches against. Keys are
// lowercase and multi-word phrases are separated by a single space.
type Vocabulary struct {
	PropertyTypes   map[string]models.PropertyType
	ListingStatuses map[string]models.ListingStatus
	Features        map[string]string
	Currencies      map[string]string
	Magnitudes      map[string]float64
	PriceCues       map[string]PriceCue
	Units           map[string]Unit
	NumberWords     map[string]int
	Connectors      map[string]bool
	Negations       map[string]bool
	Stopwords       map[string]bool
}

const sqftToSqm = 0.092903

// DefaultVocabulary returns a fresh copy of the built-in English tables.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		PropertyTypes: expand(map[models.PropertyType][]string{
			models.PropertyTypeHouse: {
				"house", "houses", "home", "homes", "villa", "villas", "cottage", "cottages",
				"bungalow", "bungalows", "single family", "detached house",
			},
			models.PropertyTypeApartment: {
				"apartment", "apartments", "apt", "apts", "flat", "flats", "studio", "studios",
				"penthouse", "penthouses", "loft", "lofts",
			},
			models.PropertyTypeCondo: {
				"condo", "condos", "condominium", "condominiums",
			},
			models.PropertyTypeTownhouse: {
				"townhouse", "townhouses", "townhome", "townhomes", "row house", "row houses",
				"terraced house",
			},
			models.PropertyTypeLand: {
				"land", "plot", "plots", "lots", "acreage", "parcel",
			},
			models.PropertyTypeCommercial: {
				"commercial", "office", "offices", "office space", "shop", "shops", "retail",
				"warehouse", "warehouses",
			},
		}),
		ListingStatuses: expand(map[models.ListingStatus][]string{
			models.ListingStatusForRent: {
				"for rent", "to rent", "rent", "rental", "rentals", "renting", "lease", "for lease", "to let",
			},
			models.ListingStatusForSale: {
				"for sale", "sale", "buy", "to buy", "buying", "purchase",
			},
			models.ListingStatusRented: {"rented", "leased"},
			models.ListingStatusSold:   {"sold"},
		}),
		Features: expand(map[string][]string{
			"pool":             {"pool", "pools", "swimming pool"},
			"garage":           {"garage", "garages"},
			"parking":          {"parking", "parking space", "parking spot", "carport"},
			"garden":           {"garden", "gardens", "yard", "backyard"},
			"balcony":          {"balcony", "balconies"},
			"terrace":          {"terrace", "terraces"},
			"elevator":         {"elevator", "lift"},
			"air-conditioning": {"air conditioning", "air conditioner", "ac", "aircon"},
			"furnished":        {"furnished", "fully furnished"},
			"unfurnished":      {"unfurnished"},
			"fireplace":        {"fireplace"},
			"gym":              {"gym"},
			"sea-view":         {"sea view", "ocean view", "seaview"},
			"pet-friendly":     {"pet friendly", "pets allowed", "pets"},
			"basement":         {"basement"},
			"storage":          {"storage"},
			"security":         {"security", "gated"},
			"heating":          {"heating", "central heating"},
		}),
		Currencies: expand(map[string][]string{
			"USD": {"$", "usd", "dollar", "dollars"},
			"EUR": {"€", "eur", "euro", "euros"},
			"GBP": {"£", "gbp", "pound", "pounds"},
			"ALL": {"lek", "leke", "lekë"},
		}),
		Magnitudes: map[string]float64{
			"k": 1e3, "thousand": 1e3, "thousands": 1e3, "grand": 1e3,
			"million": 1e6, "millions": 1e6, "mil": 1e6, "mln": 1e6,
		},
		PriceCues: expand(map[PriceCue][]string{
			CueLower: {
				"over", "above", "more than", "at least", "min", "minimum",
				"starting at", "starting from", "no less than",
			},
			CueUpper: {
				"under", "below", "less than", "max", "maximum", "up to", "at most",
				"no more than", "cheaper than", "within", "budget", "budget of",
			},
			CueRange: {"between", "from"},
		}),
		Units: expand(map[Unit][]string{
			{Kind: UnitBedroom}: {
				"bed", "beds", "bedroom", "bedrooms", "bd", "bds", "br", "bdr", "bdrm", "bdrms",
			},
			{Kind: UnitBathroom}: {"bath", "baths", "bathroom", "bathrooms", "ba"},
			{Kind: UnitArea, Factor: 1}: {
				"sqm", "m2", "m²", "sq m", "square meters", "square metres",
			},
			{Kind: UnitArea, Factor: sqftToSqm}: {
				"sqft", "ft2", "ft²", "sq ft", "square feet",
			},
		}),
		NumberWords: map[string]int{
			"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
			"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
		},
		Connectors: set("and", "to", "-"),
		Negations:  set("no", "without", "non"),
		Stopwords: set(
			"a", "an", "the", "i", "im", "me", "my", "we", "us", "our", "you", "your",
			"looking", "look", "want", "wanted", "wants", "need", "needs", "searching", "search",
			"find", "show", "get", "give", "would", "like", "please", "any", "some",
			"is", "are", "be", "with", "and", "or", "but", "in", "at", "on", "near", "nearby",
			"by", "of", "to", "for", "around", "close", "about", "inside",
			"area", "areas", "neighborhood", "neighbourhood", "city", "town", "center", "centre",
			"downtown", "district", "property", "properties", "listing", "listings",
			"place", "places", "real", "estate", "unit", "units", "room", "rooms", "floor", "floors",
			"cheap", "cheaper", "affordable", "luxury", "luxurious", "modern", "nice", "big",
			"large", "small", "spacious", "cozy", "cosy", "beautiful", "great", "good", "best",
			"new", "newly", "built", "renovated", "bright", "quiet", "family", "that", "which",
			"has", "have", "having", "than", "less", "more", "most", "least", "not",
			"per", "month", "monthly", "week", "weekly", "year", "plus", "only", "just", "very",
			"can", "will", "it", "its", "this", "these", "those", "there", "here", "where",
			"what", "who", "all", "also", "so", "up", "out", "price", "priced", "cost", "costs",
		),
	}
}

// maxPhraseWords returns the word count of the longest phrase in any table.
func (v *Vocabulary) maxPhraseWords() int {
	longest := 1
	measure := func(phrase string) {
		if n := len(strings.Fields(phrase)); n > longest {
			longest = n
		}
	}
	for k := range v.PropertyTypes {
		measure(k)
	}
	for k := range v.ListingStatuses {
		measure(k)
	}
	for k := range v.Features {
		measure(k)
	}
	for k := range v.PriceCues {
		measure(k)
	}
	for k := range v.Units {
		measure(k)
	}
	return longest
}

// knownWords collects every word that belongs to some table. None of them
// can ever be part of a location.
func (v *Vocabulary) knownWords() map[string]bool {
	known := make(map[string]bool)
	add := func(phrase string) {
		for _, w := range strings.Fields(phrase) {
			known[w] = true
		}
	}
	for k := range v.PropertyTypes {
		add(k)
	}
	for k := range v.ListingStatuses {
		add(k)
	}
	for k := range v.Features {
		add(k)
	}
	for k := range v.Currencies {
		add(k)
	}
	for k := range v.Magnitudes {
		add(k)
	}
	for k := range v.PriceCues {
		add(k)
	}
	for k := range v.Units {
		add(k)
	}
	for k := range v.NumberWords {
		add(k)
	}
	for _, m := range []map[string]bool{v.Connectors, v.Negations, v.Stopwords} {
		for k := range m {
			add(k)
		}
	}
	return known
}

func expand[V comparable](groups map[V][]string) map[string]V {
	out := make(map[string]V)
	for value, phrases := range groups {
		for _, p := range phrases {
			out[p] = value
		}
	}
	return out
}

func set(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}
