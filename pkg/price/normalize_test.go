package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"rupee symbol", "₹1,299", "₹1,299"},
		{"rupee with space", "₹ 1,299", "₹1,299"},
		{"rs prefix with decimals", "Rs. 1,299.00", "₹1,299"},
		{"inr prefix", "INR 2499", "₹2,499"},
		{"range picks lower bound", "₹499 - ₹999", "₹499"},
		{"qualifier stripped", "Starting at 799", "₹799"},
		{"from qualifier", "From ₹12,999", "₹12,999"},
		{"as low as", "As low as Rs 350", "₹350"},
		{"bare number gets grouped", "123456", "₹123,456"},
		{"paise dropped", "₹1299.5", "₹1,299"},
		{"rs with paise", "Rs. 1,299.50", "₹1,299"},
		{"currency preferred over other numbers", "4.5 out of 5 stars, 1,234 ratings ₹999", "₹999"},
		{"mrp and sale price", "₹1,299 ₹1,999 35% off", "₹1,299"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		got, ok := Normalize(in)
		assert.False(t, ok, "input %q", in)
		assert.Empty(t, got)
	}
}

func TestNormalize_NoNumericContent(t *testing.T) {
	got, ok := Normalize("  Currently unavailable  ")
	require.True(t, ok)
	assert.Equal(t, "Currently unavailable", got)
}

func TestNormalize_NoiseRejection(t *testing.T) {
	got, ok := Normalize("rated 5 stars")
	require.True(t, ok)
	assert.Equal(t, "rated 5 stars", got)
	assert.NotContains(t, got, Symbol)

	_, ok = Canonicalize("rated 5 stars")
	assert.False(t, ok)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"₹1,299", "Rs. 1,299.00", "INR 45", "Starting at 799", "₹1299.5", "₹ 12,34,567"}

	for _, in := range inputs {
		once, ok := Normalize(in)
		require.True(t, ok)
		twice, ok := Normalize(once)
		require.True(t, ok)
		assert.Equal(t, once, twice, "input %q", in)
		assert.True(t, IsCanonical(once), "not canonical: %q", once)
		assert.NotContains(t, once, " ")
	}
}

func TestNormalizer_RangePolicies(t *testing.T) {
	tests := []struct {
		input  string
		policy RangePolicy
		want   string
	}{
		{"₹499 - ₹999", RangeMin, "₹499"},
		{"₹499 - ₹999", RangeMax, "₹999"},
		{"₹499 - ₹999", RangeMidpoint, "₹749"},
		{"₹499 - 999", RangeMin, "₹499"},
		{"₹499 - 999", RangeMax, "₹999"},
		{"₹499 - 999", RangeMidpoint, "₹749"},
		{"Rs. 499 - 999", RangeMax, "₹999"},
		{"₹1,299 to 1,999", RangeMax, "₹1,999"},
		{"₹749.5 – ₹750", RangeMidpoint, "₹749"},
	}

	for _, tt := range tests {
		t.Run(tt.input+"/"+string(tt.policy), func(t *testing.T) {
			got, ok := NewNormalizer(tt.policy).Normalize(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsCanonical(got), "not canonical: %q", got)
		})
	}
}

func TestNormalizer_RangeIgnoresUnrelatedNumbers(t *testing.T) {
	got, ok := NewNormalizer(RangeMax).Normalize("4.5 out of 5 stars, 1,234 ratings ₹999")
	require.True(t, ok)
	assert.Equal(t, "₹999", got)
}

func TestIsCanonical(t *testing.T) {
	for _, s := range []string{"₹99", "₹1,299", "₹123,456"} {
		assert.True(t, IsCanonical(s), s)
	}
	for _, s := range []string{"₹1,299.50", "1,299", "₹ 1,299", "₹1299", "Rs. 99"} {
		assert.False(t, IsCanonical(s), s)
	}
}

func TestParseRangePolicy(t *testing.T) {
	p, err := ParseRangePolicy("")
	require.NoError(t, err)
	assert.Equal(t, RangeMin, p)

	p, err = ParseRangePolicy("Midpoint")
	require.NoError(t, err)
	assert.Equal(t, RangeMidpoint, p)

	_, err = ParseRangePolicy("median")
	assert.Error(t, err)
}
