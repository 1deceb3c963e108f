package sites

// Nykaa renders with CSS-in-JS class hashes plus data-testid hooks
var Nykaa = Site{
	Name:         "nykaa",
	DomainMarker: "nykaa",

	TitleSelectors:       []string{"h1", ".css-1x7n0ad"},
	DescriptionSelectors: []string{".css-1r4v2tw", ".product-description", `[data-testid="productDescription"]`},

	ImageSelectors: []string{
		`img[alt*="product"]`,
		"img[data-src]",
		".slick-active img",
		"img.slick-slide",
		`img[src*="images.nykaa"]`,
	},
	ImageAttrs:   []string{"src", "data-src"},
	AssetMarkers: []string{"nykaa", "images"},

	PriceSelectors: []string{
		".css-11m7h9r",
		".css-1jczs19",
		".price",
		`span[data-testid="priceTagAmount"]`,
		`span[data-testid="productPrice"]`,
		".price-tag",
		"span.css-15r0p3f",
	},
	ReviewSelectors: []string{
		".css-1g7m0tk .css-1r0v9b1",
		".css-1t8l7ad",
		".review",
		`span[data-testid="rating"]`,
		`p[data-testid="reviewText"]`,
	},
}
