package content

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"product-search/pkg/domain"
	"product-search/pkg/price"
)

const maxStructuredDepth = 8

// objectBoundary finds naive "}{" joins left by templates that concatenate
// several JSON-LD objects into one script block
var objectBoundary = regexp.MustCompile(`\}\s*\{`)

// StructuredExtractor reads schema.org Product data embedded as JSON-LD,
// microdata or RDFa
type StructuredExtractor struct {
	normalizer *price.Normalizer
}

// NewStructuredExtractor creates a structured-data extractor
func NewStructuredExtractor(normalizer *price.Normalizer) *StructuredExtractor {
	if normalizer == nil {
		normalizer = price.NewNormalizer(price.RangeMin)
	}
	return &StructuredExtractor{normalizer: normalizer}
}

// Name identifies the extractor in logs
func (e *StructuredExtractor) Name() string {
	return string(domain.ExtractorStructured)
}

// Extract returns nil when the page carries no Product object
func (e *StructuredExtractor) Extract(htmlContent, pageURL string) (*domain.ProductRecord, error) {
	doc, err := ParseDocument(htmlContent)
	if err != nil {
		return nil, err
	}
	raw := FindProduct(doc)
	if raw == nil {
		return nil, nil
	}
	return RecordFromStructured(raw, pageURL, e.normalizer), nil
}

// FindProduct searches JSON-LD, then microdata, then RDFa for an object
// declaring type Product and returns it verbatim
func FindProduct(doc *goquery.Document) map[string]any {
	for _, block := range JSONLDBlocks(doc) {
		if p := findProductIn(block, 0); p != nil {
			return p
		}
	}
	if p := scopedProduct(doc, "itemscope", "itemtype", "itemprop"); p != nil {
		return p
	}
	return scopedProduct(doc, "typeof", "typeof", "property")
}

// JSONLDBlocks decodes every ld+json script. Malformed blocks are split on
// object boundaries and each piece is retried on its own.
func JSONLDBlocks(doc *goquery.Document) []any {
	var blocks []any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, decodeJSONLD(s.Text())...)
	})
	return blocks
}

func decodeJSONLD(raw string) []any {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<!--")
	raw = strings.TrimSuffix(raw, "-->")
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), ";"))
	if raw == "" {
		return nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return []any{v}
	}

	parts := objectBoundary.Split(raw, -1)
	if len(parts) < 2 {
		return nil
	}
	var out []any
	for i, part := range parts {
		if i > 0 {
			part = "{" + part
		}
		if i < len(parts)-1 {
			part += "}"
		}
		var piece any
		if err := json.Unmarshal([]byte(part), &piece); err == nil {
			out = append(out, piece)
		}
	}
	return out
}

func findProductIn(v any, depth int) map[string]any {
	if depth > maxStructuredDepth {
		return nil
	}
	switch node := v.(type) {
	case map[string]any:
		if isProductType(node["@type"]) {
			return node
		}
		for _, key := range []string{"@graph", "mainEntity", "item", "itemListElement"} {
			if child, ok := node[key]; ok {
				if p := findProductIn(child, depth+1); p != nil {
					return p
				}
			}
		}
	case []any:
		for _, child := range node {
			if p := findProductIn(child, depth+1); p != nil {
				return p
			}
		}
	}
	return nil
}

func isProductType(v any) bool {
	switch t := v.(type) {
	case string:
		for _, name := range strings.Fields(t) {
			if localName(name) == "Product" {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if isProductType(item) {
				return true
			}
		}
	}
	return false
}

// localName strips vocabulary prefixes: "http://schema.org/Product" and
// "schema:Product" both become "Product"
func localName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, "/#:"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// scopedProduct handles attribute-based syntaxes. Microdata scopes with
// itemscope/itemtype/itemprop, RDFa with typeof/property.
func scopedProduct(doc *goquery.Document, scopeAttr, typeAttr, propAttr string) map[string]any {
	var found map[string]any
	doc.Find("[" + scopeAttr + "]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t, _ := s.Attr(typeAttr)
		if !isProductType(t) {
			return true
		}
		found = scopedItem(s, scopeAttr, typeAttr, propAttr, 0)
		return false
	})
	return found
}

func scopedItem(scope *goquery.Selection, scopeAttr, typeAttr, propAttr string, depth int) map[string]any {
	item := make(map[string]any)
	if t, ok := scope.Attr(typeAttr); ok {
		if fields := strings.Fields(t); len(fields) > 0 {
			item["@type"] = localName(fields[0])
		}
	}

	scopeNode := scope.Get(0)
	scope.Find("[" + propAttr + "]").Each(func(_ int, s *goquery.Selection) {
		owner := s.Parent().Closest("[" + scopeAttr + "]")
		if owner.Length() == 0 || owner.Get(0) != scopeNode {
			return
		}

		var value any
		if _, nested := s.Attr(scopeAttr); nested && depth < maxStructuredDepth {
			value = scopedItem(s, scopeAttr, typeAttr, propAttr, depth+1)
		} else {
			value = propertyValue(s)
		}

		names, _ := s.Attr(propAttr)
		for _, name := range strings.Fields(names) {
			addProperty(item, localName(name), value)
		}
	})
	return item
}

func propertyValue(s *goquery.Selection) string {
	if v, ok := s.Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	switch goquery.NodeName(s) {
	case "a", "link", "area":
		v, _ := s.Attr("href")
		return strings.TrimSpace(v)
	case "img", "source", "video", "audio", "embed", "iframe":
		v, _ := s.Attr("src")
		return strings.TrimSpace(v)
	case "data", "meter":
		v, _ := s.Attr("value")
		return strings.TrimSpace(v)
	case "time":
		if v, ok := s.Attr("datetime"); ok {
			return strings.TrimSpace(v)
		}
	}
	return NodeText(s)
}

func addProperty(item map[string]any, name string, value any) {
	existing, ok := item[name]
	if !ok {
		item[name] = value
		return
	}
	if list, isList := existing.([]any); isList {
		item[name] = append(list, value)
		return
	}
	item[name] = []any{existing, value}
}

// RecordFromStructured maps a raw Product object onto a ProductRecord
func RecordFromStructured(raw map[string]any, pageURL string, normalizer *price.Normalizer) *domain.ProductRecord {
	rec := &domain.ProductRecord{
		Name:        CleanText(stringValue(raw["name"])),
		Description: CleanText(stringValue(raw["description"])),
		Extractor:   domain.ExtractorStructured,
	}

	for _, img := range imageValues(raw["image"]) {
		if abs := ResolveURL(pageURL, img); abs != "" {
			rec.AddImage(abs)
		}
	}

	var candidates []price.Candidate
	for _, p := range offerPrices(raw["offers"], 0) {
		candidates = append(candidates, price.Candidate{Text: p, Base: price.BaseStructured})
	}
	if p, ok := normalizer.Select(candidates); ok {
		rec.SetPrice(p)
	}

	for _, r := range reviewBodies(raw["review"]) {
		rec.AddReview(r)
	}
	if len(rec.Reviews) < domain.MaxReviews {
		for _, r := range reviewBodies(raw["reviews"]) {
			rec.AddReview(r)
		}
	}
	return rec
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	case map[string]any:
		for _, key := range []string{"@value", "name", "text"} {
			if s := stringValue(t[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func imageValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, imageValues(item)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{"url", "contentUrl", "@id"} {
			if s := stringValue(t[key]); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

func offerPrices(v any, depth int) []string {
	if depth > maxStructuredDepth {
		return nil
	}
	switch t := v.(type) {
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, offerPrices(item, depth+1)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, key := range []string{"price", "lowPrice"} {
			if s := stringValue(t[key]); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			out = append(out, offerPrices(t["priceSpecification"], depth+1)...)
		}
		if len(out) == 0 {
			out = append(out, offerPrices(t["offers"], depth+1)...)
		}
		return out
	}
	return nil
}

func reviewBodies(v any) []string {
	switch t := v.(type) {
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, reviewBodies(item)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{"reviewBody", "description", "name"} {
			if s := CleanText(stringValue(t[key])); s != "" {
				return []string{s}
			}
		}
	case string:
		if s := CleanText(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
