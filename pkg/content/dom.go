package content

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"product-search/pkg/domain"
	"product-search/pkg/price"
)

// ParseDocument parses raw HTML, wrapping failures in domain.ErrParse
func ParseDocument(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", domain.ErrParse, err)
	}
	return doc, nil
}

// NodeText returns the visible text of a selection with text nodes joined by
// single spaces. Script and style contents are skipped.
func NodeText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return CleanText(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		*parts = append(*parts, n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// CleanText collapses runs of whitespace
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PageText returns the visible text of the whole document
func PageText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return NodeText(doc.Selection)
	}
	return NodeText(body)
}

// FirstText returns the text of the first selector that matches a node with
// non-empty text. Selectors are tried in order; first match wins.
func FirstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := NodeText(doc.Find(sel).First()); text != "" {
			return text
		}
	}
	return ""
}

// MetaContent returns the first non-empty content attribute among selectors
func MetaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// CollectTexts gathers deduplicated node texts across selectors in order,
// stopping at limit.
func CollectTexts(doc *goquery.Document, selectors []string, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, sel := range selectors {
		stop := false
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := NodeText(s)
			if text == "" || seen[text] {
				return true
			}
			seen[text] = true
			out = append(out, text)
			if len(out) >= limit {
				stop = true
				return false
			}
			return true
		})
		if stop {
			break
		}
	}
	return out
}

// IsAbsoluteURL reports whether s is an http(s) URL
func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolveURL makes ref absolute against base. Protocol-relative refs get https.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || IsAbsoluteURL(ref) {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if strings.HasPrefix(ref, "data:") {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

// DynamicImageURL decodes a data-a-dynamic-image attribute, a JSON object
// mapping image URLs to [width, height], and returns the largest rendition.
func DynamicImageURL(attr string) string {
	var renditions map[string][]float64
	if err := json.Unmarshal([]byte(attr), &renditions); err != nil {
		return ""
	}
	best, bestArea := "", -1.0
	for u, dims := range renditions {
		area := 0.0
		if len(dims) >= 2 {
			area = dims[0] * dims[1]
		}
		if area > bestArea || (area == bestArea && u < best) {
			best, bestArea = u, area
		}
	}
	return best
}

// ImageSource reads the first usable absolute URL from attrs on an image node
func ImageSource(s *goquery.Selection, attrs ...string) string {
	for _, attr := range attrs {
		v, ok := s.Attr(attr)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if attr == "data-a-dynamic-image" || strings.HasPrefix(v, "{") {
			v = DynamicImageURL(v)
		}
		if IsAbsoluteURL(v) {
			return v
		}
	}
	return ""
}

var (
	// RupeePattern matches an explicit ₹ amount
	RupeePattern = regexp.MustCompile(`₹\s*[\d,]+(?:\.\d+)?`)
	// PricePattern also accepts the Rs. and INR prefixes
	PricePattern = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*[\d,]+(?:\.\d+)?`)
)

// TextCandidates turns every pattern hit in text into a scored price
// candidate carrying a little surrounding context, so nearby words such as
// "price" or "MRP" count toward its score.
func TextCandidates(text string, pattern *regexp.Regexp, base int) []price.Candidate {
	const window = 24
	var out []price.Candidate
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		start := loc[0] - window
		if start < 0 {
			start = 0
		}
		end := loc[1] + window
		if end > len(text) {
			end = len(text)
		}
		match := text[loc[0]:loc[1]]
		context := strings.ToValidUTF8(text[start:loc[0]], "") + match + strings.ToValidUTF8(text[loc[1]:end], "")
		out = append(out, price.Candidate{Text: match, Context: context, Base: base})
	}
	return out
}
