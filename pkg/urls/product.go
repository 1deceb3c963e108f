package urls

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// listingMarkers identify search, category, listing and pagination URLs
var listingMarkers = []string{
	"/s?k=",
	"/s/",
	"/search",
	"/browse",
	"/category",
	"/categories",
	"/collections",
	"/shop",
	"?s=",
	"search?",
	"results",
	"/filter",
	"/sort",
	"bestsellers",
	"new-arrivals",
	"/all-products",
	"/specials",
	"/b/",
	"/gp/bestsellers",
	"/deals",
	"?node=",
	"&node=",
	"/page",
}

// itemMarkers are single-item path conventions
var itemMarkers = []string{"/dp/", "/product/", "/p/", "/item/", "/products/"}

var asinPattern = regexp.MustCompile(`(?i)/b0[a-z0-9]{7,}`)

// marketplaceRule decides URLs of one marketplace that carry no item marker
type marketplaceRule struct {
	hosts []string
	keep  func(lower string) bool
}

var marketplaceRules = []marketplaceRule{
	{hosts: []string{"amazon.in/", "amazon.com/"}, keep: asinPattern.MatchString},
	{hosts: []string{"flipkart.com", "flipkart.in", "myntra.com", "nykaa.com"}, keep: hasAny("/p/", "/product/")},
	{hosts: []string{"snapdeal.com"}, keep: hasAny("/product/")},
}

func hasAny(markers ...string) func(string) bool {
	return func(s string) bool {
		for _, m := range markers {
			if strings.Contains(s, m) {
				return true
			}
		}
		return false
	}
}

// IsProductPage reports whether rawURL looks like a single product page
// rather than a search, category or listing page. Unknown shapes are rejected.
func IsProductPage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	// markers are matched past the host so "shop.example.com" is not a listing
	tail := lower
	if u, err := url.Parse(lower); err == nil && u.Host != "" {
		tail = u.EscapedPath()
		if u.RawQuery != "" {
			tail += "?" + u.RawQuery
		}
	}

	if hasAny(listingMarkers...)(tail) {
		return false
	}
	if hasAny(itemMarkers...)(tail) {
		return true
	}
	for _, rule := range marketplaceRules {
		if hasAny(rule.hosts...)(lower) {
			return rule.keep(lower)
		}
	}
	return false
}

// ProductPageFilter keeps only single product pages
type ProductPageFilter struct{}

// NewProductPageFilter creates a new product page filter
func NewProductPageFilter() *ProductPageFilter {
	return &ProductPageFilter{}
}

// ShouldKeep returns true for product detail URLs
func (f *ProductPageFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return IsProductPage(urlStr), nil
}
