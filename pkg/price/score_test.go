package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		base    int
		want    int
	}{
		{"bare number", "42", 0, 0},
		{"currency symbol", "₹999", 0, 1},
		{"price keyword and symbol", "Price: ₹999", 0, 3},
		{"our price counts price too", "Our Price ₹1,299", 0, 6},
		{"long digits", "12345", 0, 1},
		{"base carried", "₹999", 4, 5},
		{"mrp deal", "MRP 1,999 deal", 1, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.snippet, tt.base))
		})
	}
}

func TestCandidateScore_DigitsFromValueOnly(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want int
	}{
		{"ratings nearby do not count as digits", Candidate{Text: "₹99", Context: "1,234 ratings ₹99"}, 1},
		{"own digits still count", Candidate{Text: "₹1,299", Context: "only ₹1,299 today"}, 2},
		{"keywords come from context", Candidate{Text: "₹99", Context: "Deal price ₹99", Base: BaseText}, 5},
		{"no context scores the value", Candidate{Text: "Price ₹1,299", Base: BaseSelector}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.score())
		})
	}
}

func TestSelect_NearbyCountDoesNotLiftAmount(t *testing.T) {
	got, ok := Select([]Candidate{
		{Text: "₹99", Context: "12,345 ratings ₹99", Base: BaseText},
		{Text: "₹150", Context: "₹150", Base: BaseText},
	})
	require.True(t, ok)
	assert.Equal(t, "₹150", got)
}

// Test Case: a selector-tagged "₹999" outranks a body-text "₹5"
func TestSelect_PrefersTrustedCandidate(t *testing.T) {
	candidates := []Candidate{
		{Text: "₹5", Base: BaseText},
		{Text: "₹999", Base: BasePriceSelector},
	}

	assert.Greater(t, Score("₹999", BasePriceSelector), Score("₹5", BaseText))

	got, ok := Select(candidates)
	require.True(t, ok)
	assert.Equal(t, "₹999", got)
}

func TestSelect_FrequencyBreaksScoreTie(t *testing.T) {
	candidates := []Candidate{
		{Text: "₹1,499", Base: BaseText},
		{Text: "₹2,999", Base: BaseText},
		{Text: "₹1,499", Base: BaseText},
	}

	got, ok := Select(candidates)
	require.True(t, ok)
	assert.Equal(t, "₹1,499", got)
}

func TestSelect_MagnitudeBreaksFullTie(t *testing.T) {
	candidates := []Candidate{
		{Text: "₹1,499", Base: BaseText},
		{Text: "₹2,999", Base: BaseText},
	}

	got, ok := Select(candidates)
	require.True(t, ok)
	assert.Equal(t, "₹2,999", got)
}

func TestSelect_NoCanonicalCandidates(t *testing.T) {
	_, ok := Select([]Candidate{{Text: "out of stock"}, {Text: "5 stars"}, {Text: ""}})
	assert.False(t, ok)
}

func TestRank_GroupsByNormalizedValue(t *testing.T) {
	choices := NewNormalizer(RangeMin).Rank([]Candidate{
		{Text: "Rs. 999", Base: BaseSelector},
		{Text: "₹ 999", Base: BaseText},
		{Text: "Deal price ₹899", Base: BaseText},
	})

	require.Len(t, choices, 2)
	assert.Equal(t, "₹899", choices[0].Value)
	assert.Equal(t, "₹999", choices[1].Value)
	assert.Equal(t, 2, choices[1].Count)
}
