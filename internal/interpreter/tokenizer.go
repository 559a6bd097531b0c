// internal/interpreter/tokenizer.go
package interpreter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	numeralRe        = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)(k|m|mln|mil)?(\+)?$`)
	compoundRe       = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)(k|m|mln|mil)?(\+)?([\p{L}²]+\d?)$`)
	thousandsCommaRe = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
	thousandsDotRe   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

var suffixMagnitudes = map[string]float64{"k": 1e3, "m": 1e6, "mln": 1e6, "mil": 1e6}

// separator stands in for clause punctuation. Phrases never span it.
const separator = ","

// token keeps the surface form next to the lowercase form used for matching.
type token struct {
	raw     string
	norm    string
	isNum   bool
	wordNum bool
	sep     bool
	num     float64
	base    float64
	mult    float64
	// weakMag is set for a bare "m" on a whole number ("120m"), which only
	// reads as millions next to a currency or a price cue.
	weakMag bool
}

func (t token) hasMagnitude() bool {
	return t.mult > 1
}

func (in *Interpreter) tokenize(text string) []token {
	words := strings.Fields(clean(text))
	tokens := make([]token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, in.split(w)...)
	}
	return in.mergeMagnitudes(tokens)
}

// clean drops punctuation except separators inside numbers and symbols the
// price rules rely on. Clause punctuation becomes a standalone separator.
// Case is preserved.
func clean(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case r == '.' || r == ',':
			switch {
			case i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
				b.WriteRune(r)
			case r == ',' || i+1 == len(runes) || unicode.IsSpace(runes[i+1]):
				b.WriteString(" " + separator + " ")
			default:
				b.WriteRune(' ')
			}
		case r == ';' || r == '/':
			b.WriteString(" " + separator + " ")
		case r == '+':
			if i > 0 && !unicode.IsSpace(runes[i-1]) {
				b.WriteRune(r)
			} else {
				b.WriteString(" + ")
			}
		case r == '$' || r == '€' || r == '£':
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		case r == '-' || r == '–' || r == '—':
			b.WriteString(" - ")
		case r == '\'' || r == '’':
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func (in *Interpreter) split(word string) []token {
	if word == separator {
		return []token{{raw: word, norm: word, sep: true}}
	}

	lower := strings.ToLower(word)

	if m := numeralRe.FindStringSubmatch(lower); m != nil {
		if t, ok := numeral(word, m[1], m[2]); ok {
			return []token{t}
		}
	}

	if m := compoundRe.FindStringSubmatch(lower); m != nil && in.isAttachableSuffix(m[4]) {
		if t, ok := numeral(m[1]+m[2], m[1], m[2]); ok {
			return []token{t, {raw: m[4], norm: m[4]}}
		}
	}

	if n, ok := in.vocab.NumberWords[lower]; ok {
		v := float64(n)
		return []token{{raw: word, norm: lower, isNum: true, wordNum: true, num: v, base: v, mult: 1}}
	}

	return []token{{raw: word, norm: lower}}
}

func (in *Interpreter) isAttachableSuffix(s string) bool {
	if _, ok := in.vocab.Units[s]; ok {
		return true
	}
	_, ok := in.vocab.Currencies[s]
	return ok
}

// mergeMagnitudes folds a detached magnitude word into the preceding numeral,
// so "1.5 million" becomes a single token.
func (in *Interpreter) mergeMagnitudes(tokens []token) []token {
	out := tokens[:0]
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.isNum && !t.wordNum && !t.hasMagnitude() && i+1 < len(tokens) {
			if m, ok := in.vocab.Magnitudes[tokens[i+1].norm]; ok {
				t.mult = m
				t.num = scale(t.base, m)
				t.raw += " " + tokens[i+1].raw
				t.norm += " " + tokens[i+1].norm
				i++
			}
		}
		out = append(out, t)
	}
	return out
}

func numeral(raw, digits, suffix string) (token, bool) {
	base, ok := parseNumeral(digits)
	if !ok {
		return token{}, false
	}
	mult := 1.0
	if m, exists := suffixMagnitudes[suffix]; exists {
		mult = m
	}
	return token{
		raw:     raw,
		norm:    strings.ToLower(raw),
		isNum:   true,
		num:     scale(base, mult),
		base:    base,
		mult:    mult,
		weakMag: suffix == "m" && !strings.ContainsAny(digits, ".,"),
	}, true
}

// scale applies a magnitude, rounding to cents so "1.2 million" is exactly 1200000.
func scale(base, mult float64) float64 {
	if mult == 1 {
		return base
	}
	return math.Round(base*mult*100) / 100
}

// parseNumeral accepts "200000", "200,000", "150.000", "1.5", "1,5" and
// "1.234,56".
func parseNumeral(s string) (float64, bool) {
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if thousandsCommaRe.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot:
		if thousandsDotRe.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func isMixedCase(text string) bool {
	var upper, lower bool
	for _, r := range text {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
		if upper && lower {
			return true
		}
	}
	return false
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
