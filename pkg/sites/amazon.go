package sites

// Amazon covers amazon.in and the other Amazon storefronts
var Amazon = Site{
	Name:         "amazon",
	DomainMarker: "amazon",

	TitleSelectors:       []string{"#productTitle", "h1"},
	DescriptionSelectors: []string{"#productDescription", "#feature-bullets"},

	ImageSelectors: []string{
		"img#landingImage",
		"img[data-old-hires]",
		`img[alt*="product"]`,
		"img.a-dynamic-image",
		"#altImages img",
		"img[data-a-dynamic-image]",
	},
	ImageAttrs:   []string{"src", "data-old-hires", "data-a-dynamic-image", "data-src"},
	AssetMarkers: []string{"amazon"},

	PriceSelectors: []string{
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price .a-offscreen",
		".a-price-whole",
		"span.a-price-whole",
		`span[data-a-color*="price"]`,
		"span.a-price-symbol",
		"div.a-price",
		".a-price.a-text-price.a-size-medium.apexPriceToPay",
	},
	ReviewSelectors: []string{
		"div[data-hook='review'] .review-text-content",
		"#cm-cr-dp-review-list .review-text",
		".review-text",
		"span[data-hook='review-body']",
		"div.a-row.a-spacing-small",
	},
}
