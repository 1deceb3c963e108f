package pipeline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"product-search/pkg/content"
	"product-search/pkg/domain"
	"product-search/pkg/price"
)

// Re-scouting casts the widest net for the two fields that matter most,
// image and price, across every retailer layout we have seen.

var rescoutImageSelectors = []string{
	"img#landingImage",
	"img#imgBlkFront",
	"img[data-a-dynamic-image]",
	".product-image img",
	".main-image img",
	".product-photo img",
	".gallery img",
}

var rescoutImageAttrs = []string{"src", "data-src", "data-lazy-src", "data-a-dynamic-image"}

// minLooseImageURLLength applies to the last-resort scan over every <img>
const minLooseImageURLLength = 20

var rescoutPriceSelectors = []string{
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	".a-price .a-offscreen",
	".a-price-whole",
	".priceBlockBuyingPriceString",
	".pdp-price",
	".selling-price",
	".FinalPrice",
	".price",
	".product-price",
	".offer-price",
	".pprice",
	"._30jeq3._16Jk6d",
	".price-whole",
	".payBlkBig",
	".priceLarge",
}

// rescoutPricePatterns are tried in order over the visible page text
var rescoutPricePatterns = []*regexp.Regexp{
	content.RupeePattern,
	regexp.MustCompile(`(?i)\brs\.?\s*[\d,]+(?:\.\d+)?`),
	regexp.MustCompile(`(?i)(?:price|mrp|₹|\brs\.?)\s*[:\-\s]?\s*[\d,]+\d(?:\.\d+)?`),
}

// Rescouter recovers image and price with broad, site-agnostic heuristics
type Rescouter struct {
	normalizer *price.Normalizer
}

// NewRescouter creates a re-scout pass
func NewRescouter(normalizer *price.Normalizer) *Rescouter {
	if normalizer == nil {
		normalizer = price.NewNormalizer(price.RangeMin)
	}
	return &Rescouter{normalizer: normalizer}
}

// Scout returns a partial record holding at most one image and a price.
// It never fails; an unparseable page yields an empty record.
func (r *Rescouter) Scout(htmlContent, pageURL string) *domain.ProductRecord {
	rec := &domain.ProductRecord{}
	doc, err := content.ParseDocument(htmlContent)
	if err != nil {
		return rec
	}
	if img := RescoutImage(doc, pageURL); img != "" {
		rec.AddImage(img)
	}
	if p, ok := r.RescoutPrice(doc); ok {
		rec.SetPrice(p)
	}
	return rec
}

// RescoutImage follows og:image, twitter:image, link rel=image_src, known
// gallery selectors and finally any absolute <img> source
func RescoutImage(doc *goquery.Document, pageURL string) string {
	meta := content.MetaContent(doc,
		`meta[property="og:image"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	)
	if meta == "" {
		if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok {
			meta = strings.TrimSpace(href)
		}
	}
	if meta != "" {
		if abs := content.ResolveURL(pageURL, meta); abs != "" {
			return abs
		}
	}

	for _, sel := range rescoutImageSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = content.ImageSource(s, rescoutImageAttrs...)
			return found == ""
		})
		if found != "" {
			return found
		}
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if content.IsAbsoluteURL(src) && len(src) > minLooseImageURLLength {
			found = src
			return false
		}
		return true
	})
	return found
}

// RescoutPrice takes the first price selector that resolves to a canonical
// amount, then ranks regex hits over the page text pattern by pattern
func (r *Rescouter) RescoutPrice(doc *goquery.Document) (string, bool) {
	for _, sel := range rescoutPriceSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if p, ok := r.normalizer.Canonicalize(content.NodeText(s)); ok {
				found = p
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}

	text := content.PageText(doc)
	for _, pattern := range rescoutPricePatterns {
		if p, ok := r.normalizer.Select(content.TextCandidates(text, pattern, price.BaseText)); ok {
			return p, true
		}
	}
	return "", false
}
