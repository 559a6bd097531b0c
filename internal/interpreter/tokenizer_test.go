// internal/interpreter/tokenizer_test.go
package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeral(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
		ok       bool
	}{
		{"200000", 200000, true},
		{"200,000", 200000, true},
		{"1,200,000", 1200000, true},
		{"150.000", 150000, true},
		{"1.500.000", 1500000, true},
		{"1.5", 1.5, true},
		{"1,5", 1.5, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"1.2.3.4", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := parseNumeral(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"$200,000.", " $ 200,000 , "},
		{"Tirana, Albania!", "Tirana ,  Albania "},
		{"flat; garden/pool", "flat ,  garden , pool"},
		{"St.Louis", "St Louis"},
		{"100k-200k", "100k - 200k"},
		{"3+ beds", "3+ beds"},
		{"king's road", "kings road"},
		{"120m²", "120m²"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, clean(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	in := New(nil)

	tokens := in.tokenize("3bd under €1.5 million in Tirana")
	norms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		norms = append(norms, tok.norm)
	}
	assert.Equal(t, []string{"3", "bd", "under", "€", "1.5 million", "in", "tirana"}, norms)

	assert.True(t, tokens[0].isNum)
	assert.Equal(t, float64(3), tokens[0].num)
	assert.Equal(t, float64(1500000), tokens[4].num)
	assert.True(t, tokens[4].hasMagnitude())
	assert.Equal(t, "Tirana", tokens[6].raw)
}

func TestTokenize_Separators(t *testing.T) {
	tokens := New(nil).tokenize("Durres, Tirana")
	require.Len(t, tokens, 3)
	assert.True(t, tokens[1].sep)
	assert.False(t, tokens[0].sep)
}

func TestTokenize_WeakMillionSuffix(t *testing.T) {
	in := New(nil)
	assert.True(t, in.tokenize("120m")[0].weakMag)
	assert.False(t, in.tokenize("1.5m")[0].weakMag)
	assert.False(t, in.tokenize("120k")[0].weakMag)
}

func TestTokenize_NumberWords(t *testing.T) {
	tokens := New(nil).tokenize("Three bedrooms")
	assert.True(t, tokens[0].isNum)
	assert.True(t, tokens[0].wordNum)
	assert.Equal(t, float64(3), tokens[0].num)
}

func TestIsMixedCase(t *testing.T) {
	assert.True(t, isMixedCase("flat in Tirana"))
	assert.False(t, isMixedCase("flat in tirana"))
	assert.False(t, isMixedCase("FLAT IN TIRANA"))
	assert.False(t, isMixedCase("123 $"))
}
