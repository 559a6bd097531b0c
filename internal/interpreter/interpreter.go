// Package interpreter turns a free-text property query such as
// "3 bedroom apartment under $200000 in Tirana" into models.SearchFilters.
//
// Interpretation is rule based and driven entirely by a Vocabulary. It never
// fails: text it does not understand simply produces fewer constraints.
package interpreter

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"realestate-workers/internal/models"
)

// Interpreter is safe for concurrent use; it holds no mutable state.
type Interpreter struct {
	vocab     *Vocabulary
	maxPhrase int
	known     map[string]bool
}

func New(vocab *Vocabulary) *Interpreter {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Interpreter{
		vocab:     vocab,
		maxPhrase: vocab.maxPhraseWords(),
		known:     vocab.knownWords(),
	}
}

var defaultInterpreter = New(DefaultVocabulary())

// Interpret parses text with the default vocabulary.
func Interpret(text string) models.SearchFilters {
	return defaultInterpreter.Interpret(text)
}

func (in *Interpreter) Interpret(text string) models.SearchFilters {
	s := &state{in: in, tokens: in.tokenize(text)}
	s.used = make([]bool, len(s.tokens))
	for i, t := range s.tokens {
		s.used[i] = t.sep
	}

	// Measures run before prices: a number next to a room or area unit is
	// never a price, whatever cue precedes it.
	s.extractMeasures()
	s.extractPrices()
	s.extractCategories()
	s.extractFeatures()
	s.extractLocations(isMixedCase(text))

	return s.filters
}

type state struct {
	in      *Interpreter
	tokens  []token
	used    []bool
	filters models.SearchFilters

	featureSeen  map[string]bool
	locationSeen map[string]bool
}

func (s *state) extractMeasures() {
	for i := range s.tokens {
		t := s.tokens[i]
		if !t.isNum || s.used[i] {
			continue
		}

		next := i + 1
		if next < len(s.tokens) && s.tokens[next].norm == "+" {
			next++
		}
		after, width, hasAfter := s.unitAt(next)
		if hasAfter && after.Kind == UnitArea && t.wordNum {
			hasAfter = false
		}
		before, hasBefore := s.unitBefore(i)

		// In "bedrooms 3 bathrooms 2" the following unit belongs to the next number.
		if hasAfter && hasBefore && s.isNumeral(next+width) {
			hasAfter = false
		}

		switch {
		case hasAfter:
			s.assignMeasure(after, t)
			s.mark(i, next+width)
		case hasBefore:
			s.assignMeasure(before, t)
			s.mark(i-1, i+1)
		}
	}
}

func (s *state) unitBefore(i int) (Unit, bool) {
	if i == 0 || s.used[i-1] {
		return Unit{}, false
	}
	unit, ok := s.in.vocab.Units[s.tokens[i-1].norm]
	return unit, ok && unit.Kind != UnitArea
}

func (s *state) isNumeral(i int) bool {
	return i < len(s.tokens) && s.tokens[i].isNum
}

func (s *state) unitAt(i int) (Unit, int, bool) {
	for n := 2; n >= 1; n-- {
		if i+n > len(s.tokens) || s.anyUsed(i, i+n) {
			continue
		}
		if unit, ok := s.in.vocab.Units[s.phrase(i, i+n)]; ok {
			return unit, n, true
		}
	}
	return Unit{}, 0, false
}

// Room counts above maxRooms are ignored.
const maxRooms = 100

func (s *state) assignMeasure(unit Unit, t token) {
	switch unit.Kind {
	case UnitBedroom:
		if s.filters.Bedrooms == nil && t.num <= maxRooms {
			v := int(t.num)
			s.filters.Bedrooms = &v
		}
	case UnitBathroom:
		if s.filters.Bathrooms == nil && t.num <= maxRooms {
			v := t.num
			s.filters.Bathrooms = &v
		}
	case UnitArea:
		if s.filters.MinArea == nil && t.num > 0 {
			v := math.Round(t.num*unit.Factor*100) / 100
			s.filters.MinArea = &v
		}
	}
}

func (s *state) extractPrices() {
	for i := 0; i < len(s.tokens); i++ {
		t := s.tokens[i]
		if !t.isNum || t.wordNum || s.used[i] {
			continue
		}

		cue, cueStart := s.cueBefore(i)

		j, conn, match := s.rangePartner(i)
		if match == rangeClaimed && (cue == CueRange || !s.priceMarked(i)) {
			// "between 2 and 3 bedrooms": the pair counts rooms, not money.
			continue
		}
		if match == rangeFound {
			marked := s.priceMarked(i) || s.priceMarked(j)
			if cue == CueRange || (conn != "and" && marked) {
				lo, hi := rangeBounds(t, s.tokens[j])
				s.setPrice(&s.filters.MinPrice, lo)
				s.setPrice(&s.filters.MaxPrice, hi)
				s.claimCurrency(i)
				s.claimCurrency(j)
				s.mark(cueStart, j+1)
				i = j
				continue
			}
		}

		switch {
		case cue == CueUpper:
			s.setPrice(&s.filters.MaxPrice, t.num)
		case cue == CueLower || cue == CueRange:
			s.setPrice(&s.filters.MinPrice, t.num)
		case s.priceMarked(i):
			// A bare price reads as the buyer's budget.
			s.setPrice(&s.filters.MaxPrice, t.num)
		default:
			continue
		}
		s.claimCurrency(i)
		s.mark(cueStart, i+1)
	}

	f := &s.filters
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		f.MinPrice, f.MaxPrice = f.MaxPrice, f.MinPrice
	}

	if f.HasPrice() && f.Currency == "" {
		for i, t := range s.tokens {
			if code, ok := s.in.vocab.Currencies[t.norm]; ok {
				f.Currency = code
				s.used[i] = true
				break
			}
		}
	}
}

// cueBefore finds the longest price cue ending right before token i, looking
// past a single currency token. It returns i as start when there is none.
func (s *state) cueBefore(i int) (PriceCue, int) {
	end := i - 1
	if end >= 0 && s.isCurrency(end) {
		end--
	}
	if end < 0 {
		return CueNone, i
	}
	for n := s.in.maxPhrase; n >= 1; n-- {
		start := end - n + 1
		if start < 0 || s.anyUsed(start, end+1) {
			continue
		}
		if cue, ok := s.in.vocab.PriceCues[s.phrase(start, end+1)]; ok {
			return cue, start
		}
	}
	return CueNone, i
}

type rangeMatch int

const (
	rangeNone rangeMatch = iota
	rangeFound
	rangeClaimed
)

// rangePartner matches "X and Y", "X to Y" and "X - Y" forms, with optional
// currency tokens around either side. rangeClaimed means Y exists but an
// earlier rule already took it.
func (s *state) rangePartner(i int) (int, string, rangeMatch) {
	k := i + 1
	if k < len(s.tokens) && s.isCurrency(k) {
		k++
	}
	if k >= len(s.tokens) || s.used[k] || !s.in.vocab.Connectors[s.tokens[k].norm] {
		return 0, "", rangeNone
	}
	conn := s.tokens[k].norm
	k++
	if k < len(s.tokens) && s.isCurrency(k) {
		k++
	}
	if k >= len(s.tokens) || !s.tokens[k].isNum || s.tokens[k].wordNum {
		return 0, "", rangeNone
	}
	if s.used[k] {
		return k, conn, rangeClaimed
	}
	return k, conn, rangeFound
}

// rangeBounds orders the pair and lets a trailing magnitude cover both ends,
// so "100-200k" spans 100000 to 200000.
func rangeBounds(a, b token) (float64, float64) {
	lo, hi := a.num, b.num
	if !a.hasMagnitude() && b.hasMagnitude() && a.base <= b.base {
		lo = a.base * b.mult
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func (s *state) priceMarked(i int) bool {
	if t := s.tokens[i]; t.hasMagnitude() && !t.weakMag {
		return true
	}
	return (i > 0 && s.isCurrency(i-1)) || (i+1 < len(s.tokens) && s.isCurrency(i+1))
}

func (s *state) claimCurrency(i int) {
	for _, k := range []int{i - 1, i + 1} {
		if k < 0 || k >= len(s.tokens) || !s.isCurrency(k) {
			continue
		}
		if s.filters.Currency == "" {
			s.filters.Currency = s.in.vocab.Currencies[s.tokens[k].norm]
		}
		s.used[k] = true
	}
}

func (s *state) isCurrency(i int) bool {
	_, ok := s.in.vocab.Currencies[s.tokens[i].norm]
	return ok
}

func (s *state) setPrice(dst **float64, v float64) {
	if *dst == nil && v > 0 {
		*dst = &v
	}
}

func (s *state) extractCategories() {
	v := s.in.vocab
	s.scanPhrases(func(phrase string, _ int) bool {
		if pt, ok := v.PropertyTypes[phrase]; ok {
			if s.filters.PropertyType == "" {
				s.filters.PropertyType = pt
			}
			return true
		}
		if ls, ok := v.ListingStatuses[phrase]; ok {
			if s.filters.ListingStatus == "" {
				s.filters.ListingStatus = ls
			}
			return true
		}
		return false
	})
}

func (s *state) extractFeatures() {
	v := s.in.vocab
	s.featureSeen = make(map[string]bool)
	s.scanPhrases(func(phrase string, start int) bool {
		tag, ok := v.Features[phrase]
		if !ok {
			return false
		}
		if start > 0 && !s.used[start-1] && v.Negations[s.tokens[start-1].norm] {
			s.used[start-1] = true
			return true
		}
		if !s.featureSeen[tag] {
			s.featureSeen[tag] = true
			s.filters.FeatureTags = append(s.filters.FeatureTags, tag)
		}
		return true
	})
}

// scanPhrases walks the unused tokens left to right, offering the longest
// phrase first at every position. Matched tokens are marked as used.
func (s *state) scanPhrases(match func(phrase string, start int) bool) {
	for i := 0; i < len(s.tokens); {
		width := 0
		for n := s.in.maxPhrase; n >= 1; n-- {
			if i+n > len(s.tokens) || s.anyUsed(i, i+n) {
				continue
			}
			if match(s.phrase(i, i+n), i) {
				width = n
				break
			}
		}
		if width == 0 {
			i++
			continue
		}
		s.mark(i, i+width)
		i += width
	}
}

// extractLocations keeps whatever no other rule claimed. Adjacent survivors
// form one phrase. In mixed-case input only capitalized words qualify.
func (s *state) extractLocations(mixedCase bool) {
	s.locationSeen = make(map[string]bool)
	var words []string
	flush := func() {
		if len(words) == 0 {
			return
		}
		loc := strings.Join(words, " ")
		if key := strings.ToLower(loc); !s.locationSeen[key] {
			s.locationSeen[key] = true
			s.filters.LocationTokens = append(s.filters.LocationTokens, loc)
		}
		words = words[:0]
	}

	for i, t := range s.tokens {
		if s.used[i] || !s.isLocationWord(t, mixedCase) {
			flush()
			continue
		}
		words = append(words, t.raw)
	}
	flush()
}

func (s *state) isLocationWord(t token, mixedCase bool) bool {
	if t.isNum || utf8.RuneCountInString(t.norm) < 2 || !isWord(t.raw) || s.in.known[t.norm] {
		return false
	}
	if mixedCase {
		first, _ := utf8.DecodeRuneInString(t.raw)
		return unicode.IsUpper(first)
	}
	return true
}

func (s *state) phrase(from, to int) string {
	if to-from == 1 {
		return s.tokens[from].norm
	}
	parts := make([]string, 0, to-from)
	for _, t := range s.tokens[from:to] {
		parts = append(parts, t.norm)
	}
	return strings.Join(parts, " ")
}

func (s *state) anyUsed(from, to int) bool {
	for k := from; k < to; k++ {
		if s.used[k] {
			return true
		}
	}
	return false
}

func (s *state) mark(from, to int) {
	for k := from; k < to && k < len(s.used); k++ {
		if k >= 0 {
			s.used[k] = true
		}
	}
}
