package urls

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProductPage(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.amazon.in/foo/dp/B001XYZ", true},
		{"https://www.amazon.in/s?k=foo", false},
		{"https://www.flipkart.com/product/p/itm123", true},
		{"https://www.amazon.in/Acme-Earbuds/B0ABCDEFGH", true},
		{"https://www.amazon.in/gp/help/customer", false},
		{"https://www.amazon.in/b/?node=1389401031", false},
		{"https://www.flipkart.com/mobiles/pr?sid=tyy", false},
		{"https://www.flipkart.com/search?q=phone", false},
		{"https://www.myntra.com/shoes/nike/p/123", true},
		{"https://www.nykaa.com/lipstick/c/123", false},
		{"https://www.snapdeal.com/product/acme-fan/6412", true},
		{"https://www.snapdeal.com/offers/fans", false},
		{"https://shop.example.com/item/42", true},
		{"https://shop.example.com/category/fans", false},
		{"https://shop.example.com/page/2", false},
		{"https://shop.example.com/about", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsProductPage(tt.url), tt.url)
	}
}

func TestFilterURLs(t *testing.T) {
	ctx := context.Background()
	in := []string{
		"https://www.amazon.in/foo/dp/B001XYZ",
		"https://www.amazon.in/s?k=foo",
		"https://www.flipkart.com/product/p/itm123",
		"https://www.nykaa.com/lipstick/p/9",
		"https://www.amazon.in/foo/dp/B001XYZ",
	}

	got := FilterURLs(ctx, Dedupe(in),
		NewProductPageFilter(),
		NewSiteFilter([]string{"amazon.in", "www.flipkart.com"}),
		NewAlreadyFetchedFilter(map[string]bool{"https://www.flipkart.com/product/p/itm999": true}),
	)

	assert.Equal(t, []string{
		"https://www.amazon.in/foo/dp/B001XYZ",
		"https://www.flipkart.com/product/p/itm123",
	}, got)
}

func TestSiteFilter(t *testing.T) {
	ctx := context.Background()
	f := NewSiteFilter([]string{"amazon.in"})

	keep, _ := f.ShouldKeep(ctx, "https://www.amazon.in/dp/B0X")
	assert.True(t, keep)
	keep, _ = f.ShouldKeep(ctx, "https://notamazon.in/dp/B0X")
	assert.False(t, keep)

	keep, _ = NewSiteFilter(nil).ShouldKeep(ctx, "https://anything.example")
	assert.True(t, keep)
}

func TestBaseURLFilter(t *testing.T) {
	ctx := context.Background()
	f := NewBaseURLFilter()

	keep, _ := f.ShouldKeep(ctx, "https://www.nykaa.com/")
	assert.False(t, keep)
	keep, _ = f.ShouldKeep(ctx, "https://www.nykaa.com/lipstick/p/9")
	assert.True(t, keep)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedupe([]string{"a", "", "b", "a"}))
}
