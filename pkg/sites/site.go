package sites

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"product-search/pkg/content"
	"product-search/pkg/domain"
	"product-search/pkg/price"
)

// minImageURLLength filters out tracking pixels and sprite paths
const minImageURLLength = 50

// Site describes the DOM conventions of one retailer
type Site struct {
	Name string
	// DomainMarker is matched as a substring of the page host
	DomainMarker string

	TitleSelectors       []string
	DescriptionSelectors []string

	ImageSelectors []string
	// ImageAttrs are read in order on each image node, covering lazy-load
	// attributes and JSON-in-attribute encodings
	ImageAttrs []string
	// AssetMarkers identify the retailer's image CDN for the last-resort scan
	AssetMarkers []string

	PriceSelectors  []string
	ReviewSelectors []string
}

// Extractor applies a Site's selector cascades to a page
type Extractor struct {
	site       Site
	normalizer *price.Normalizer
}

// NewExtractor creates an extractor for one site
func NewExtractor(site Site, normalizer *price.Normalizer) *Extractor {
	if normalizer == nil {
		normalizer = price.NewNormalizer(price.RangeMin)
	}
	return &Extractor{site: site, normalizer: normalizer}
}

// Name identifies the extractor in logs
func (e *Extractor) Name() string {
	return e.site.Name
}

// Site returns the conventions this extractor applies
func (e *Extractor) Site() Site {
	return e.site
}

// Extract resolves title, description, image, price and reviews. The result
// always carries SourceURL so the orchestrator can tell it apart from the
// empty "unknown domain" result.
func (e *Extractor) Extract(htmlContent, pageURL string) (*domain.ProductRecord, error) {
	doc, err := content.ParseDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	rec := &domain.ProductRecord{
		Name:        content.FirstText(doc, e.site.TitleSelectors...),
		Description: content.FirstText(doc, e.site.DescriptionSelectors...),
		SourceURL:   pageURL,
		Extractor:   domain.ExtractorSite,
	}

	if img := e.image(doc, pageURL); img != "" {
		rec.AddImage(img)
	}
	if p, ok := e.price(doc); ok {
		rec.SetPrice(p)
	}
	for _, r := range content.CollectTexts(doc, e.site.ReviewSelectors, domain.MaxReviews) {
		rec.AddReview(r)
	}
	return rec, nil
}

// image follows og:image, then the site's image selectors, then any long
// absolute URL on the site's asset domain
func (e *Extractor) image(doc *goquery.Document, pageURL string) string {
	if og := content.MetaContent(doc, `meta[property="og:image"]`); og != "" {
		if abs := content.ResolveURL(pageURL, og); abs != "" {
			return abs
		}
	}

	for _, sel := range e.site.ImageSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if src := content.ImageSource(node, e.site.ImageAttrs...); len(src) > minImageURLLength {
			return src
		}
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := content.ImageSource(s, e.site.ImageAttrs...)
		if len(src) <= minImageURLLength || !e.onAssetDomain(src) {
			return true
		}
		found = src
		return false
	})
	return found
}

func (e *Extractor) onAssetDomain(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range e.site.AssetMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// price takes the first selector node whose text holds a ₹, Rs. or INR
// amount, then falls back to ranking every such amount on the page
func (e *Extractor) price(doc *goquery.Document) (string, bool) {
	for _, sel := range e.site.PriceSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			m := content.PricePattern.FindString(content.NodeText(s))
			if m == "" {
				return true
			}
			if p, ok := e.normalizer.Canonicalize(m); ok {
				found = p
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}

	candidates := content.TextCandidates(content.PageText(doc), content.PricePattern, price.BaseText)
	return e.normalizer.Select(candidates)
}

// Dispatcher routes a page to the extractor registered for its domain
type Dispatcher struct {
	extractors []*Extractor
}

// NewDispatcher registers the known retailers
func NewDispatcher(normalizer *price.Normalizer) *Dispatcher {
	return &Dispatcher{
		extractors: []*Extractor{
			NewExtractor(Amazon, normalizer),
			NewExtractor(Flipkart, normalizer),
			NewExtractor(Nykaa, normalizer),
		},
	}
}

// Name identifies the dispatcher in logs
func (d *Dispatcher) Name() string {
	return string(domain.ExtractorSite)
}

// ForDomain returns the extractor whose marker appears in host, or nil
func (d *Dispatcher) ForDomain(host string) *Extractor {
	host = strings.ToLower(host)
	for _, e := range d.extractors {
		if strings.Contains(host, e.site.DomainMarker) {
			return e
		}
	}
	return nil
}

// Extract dispatches on the page host. Unknown domains yield an empty record
// without SourceURL, which callers treat as unusable.
func (d *Dispatcher) Extract(htmlContent, pageURL string) (*domain.ProductRecord, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return &domain.ProductRecord{}, nil
	}
	e := d.ForDomain(u.Hostname())
	if e == nil {
		return &domain.ProductRecord{}, nil
	}
	return e.Extract(htmlContent, pageURL)
}
