package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"product-search/pkg/domain"
	"product-search/pkg/price"
)

var genericTitleSelectors = []string{"#productTitle, h1, .prd-title, .pdp-title"}

var genericDescriptionSelectors = []string{"#productDescription, #feature-bullets, .product-desc, .description"}

var genericPriceSelectors = []string{
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	".priceBlockBuyingPriceString",
	".pdp-price",
	".selling-price, ._30jeq3._16Jk6d",
	".a-price-whole",
	".price",
	".final-price",
}

var genericImageSelectors = []string{
	"img#landingImage",
	".product-image img",
	".main-image img",
	".product-photo img",
	".gallery img",
}

var genericReviewSelectors = []string{
	".review-text",
	".a-size-base.review-text.review-text-content, .review-text-content",
	".qwjRop ._3l3x",
	"._16PBlm",
	".col._2wzgFH",
	".t-ZTKy",
	"._2-N8zT",
	"._1YokD2 ._1AtVbE",
}

// GenericExtractor applies cross-site heuristics. It never fails: a missing
// field is left empty.
type GenericExtractor struct {
	normalizer *price.Normalizer
}

// NewGenericExtractor creates the domain-agnostic fallback extractor
func NewGenericExtractor(normalizer *price.Normalizer) *GenericExtractor {
	if normalizer == nil {
		normalizer = price.NewNormalizer(price.RangeMin)
	}
	return &GenericExtractor{normalizer: normalizer}
}

// Name identifies the extractor in logs
func (e *GenericExtractor) Name() string {
	return string(domain.ExtractorFallback)
}

// Extract always returns a record, even for an empty or unparsable document
func (e *GenericExtractor) Extract(htmlContent, pageURL string) (*domain.ProductRecord, error) {
	rec := &domain.ProductRecord{Extractor: domain.ExtractorFallback}

	doc, err := ParseDocument(htmlContent)
	if err != nil {
		rec.Finalize()
		return rec, nil
	}

	rec.Name = FirstText(doc, genericTitleSelectors...)
	rec.Description = e.description(doc, htmlContent, pageURL)

	if img := e.image(doc, pageURL); img != "" {
		rec.AddImage(img)
	}

	if p, ok := e.normalizer.Select(e.priceCandidates(doc)); ok {
		rec.SetPrice(p)
	}

	for _, r := range e.reviews(doc) {
		rec.AddReview(r)
	}

	rec.Finalize()
	return rec, nil
}

func (e *GenericExtractor) description(doc *goquery.Document, htmlContent, pageURL string) string {
	if desc := MetaContent(doc, `meta[name="description"]`); desc != "" {
		return CleanText(desc)
	}
	if desc := FirstText(doc, genericDescriptionSelectors...); desc != "" {
		return desc
	}
	return readableExcerpt(htmlContent, pageURL)
}

// readableExcerpt falls back to readability's summary of the main content
func readableExcerpt(htmlContent, pageURL string) string {
	if strings.TrimSpace(htmlContent) == "" {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(htmlContent), parsePageURL(pageURL))
	if err != nil {
		return ""
	}
	return CleanText(article.Excerpt)
}

func (e *GenericExtractor) image(doc *goquery.Document, pageURL string) string {
	if og := MetaContent(doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`); og != "" {
		if abs := ResolveURL(pageURL, og); abs != "" {
			return abs
		}
	}
	for _, sel := range genericImageSelectors {
		if src := ImageSource(doc.Find(sel).First(), "src", "data-src", "data-lazy-src", "data-old-hires"); src != "" {
			return src
		}
	}
	return ""
}

func (e *GenericExtractor) priceCandidates(doc *goquery.Document) []price.Candidate {
	var candidates []price.Candidate
	for _, sel := range genericPriceSelectors {
		text := NodeText(doc.Find(sel).First())
		if text == "" {
			continue
		}
		base := price.BaseSelector
		if strings.Contains(strings.ToLower(sel), "price") {
			base = price.BasePriceSelector
		}
		candidates = append(candidates, price.Candidate{Text: text, Base: base})
	}

	candidates = append(candidates, TextCandidates(PageText(doc), PricePattern, price.BaseText)...)
	return candidates
}

func (e *GenericExtractor) reviews(doc *goquery.Document) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(r string) {
		if r == "" || seen[r] || len(out) >= domain.MaxReviews {
			return
		}
		seen[r] = true
		out = append(out, r)
	}

	for _, block := range JSONLDBlocks(doc) {
		for _, r := range jsonLDReviews(block) {
			add(r)
		}
	}
	for _, r := range CollectTexts(doc, genericReviewSelectors, domain.MaxReviews) {
		add(r)
	}
	return out
}

func jsonLDReviews(block any) []string {
	switch t := block.(type) {
	case map[string]any:
		out := reviewBodies(t["review"])
		if graph, ok := t["@graph"]; ok {
			out = append(out, jsonLDReviews(graph)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, jsonLDReviews(item)...)
		}
		return out
	}
	return nil
}
