package sites

// Flipkart uses obfuscated, frequently rotated class names; several
// generations are listed so older cached pages still parse
var Flipkart = Site{
	Name:         "flipkart",
	DomainMarker: "flipkart",

	TitleSelectors:       []string{"span.B_NuCI", "h1", ".yhB1nd"},
	DescriptionSelectors: []string{"div._1mXcCf", "div._2mQ9ls", "div.product-description"},

	ImageSelectors: []string{
		"img._2r_T1I",
		`img[alt*="product"]`,
		"img[data-src]",
		".fHxXCd img",
		"img.EKtt6",
	},
	ImageAttrs:   []string{"src", "data-src"},
	AssetMarkers: []string{"flipkart", "cloudinary"},

	PriceSelectors: []string{
		"div._30jeq3._16Jk6d",
		"div._1vC4OE",
		"span._16Jk6d",
		".price",
		"span._2Tpremove",
		"div.Nx9bqj",
		"div._25b27d",
	},
	ReviewSelectors: []string{
		"div._16PBlm",
		"div._1lRcqv",
		"div._2-N8zT",
		"div._3n65Vw",
		"span._2MQATc",
		"p._39M2dY",
	},
}
