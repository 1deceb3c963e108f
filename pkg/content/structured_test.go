package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-search/pkg/domain"
	"product-search/pkg/price"
)

func mustDoc(t *testing.T, html string) map[string]any {
	t.Helper()
	doc, err := ParseDocument(html)
	require.NoError(t, err)
	return FindProduct(doc)
}

func TestFindProduct_JSONLDTopLevel(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@context":"https://schema.org","@type":"Product","name":"Boat Rockerz 450","offers":{"@type":"Offer","price":"1499","priceCurrency":"INR"}}
	</script></head><body></body></html>`

	raw := mustDoc(t, html)
	require.NotNil(t, raw)
	assert.Equal(t, "Boat Rockerz 450", raw["name"])
}

func TestFindProduct_JSONLDGraphAndMainEntity(t *testing.T) {
	graph := `<script type="application/ld+json">
	{"@context":"https://schema.org","@graph":[{"@type":"WebSite","name":"Shop"},{"@type":["Product","Thing"],"name":"Graph Item"}]}
	</script>`
	raw := mustDoc(t, graph)
	require.NotNil(t, raw)
	assert.Equal(t, "Graph Item", raw["name"])

	mainEntity := `<script type="application/ld+json">
	{"@type":"WebPage","mainEntity":{"@type":"Product","name":"Main Entity Item"}}
	</script>`
	raw = mustDoc(t, mainEntity)
	require.NotNil(t, raw)
	assert.Equal(t, "Main Entity Item", raw["name"])

	list := `<script type="application/ld+json">
	[{"@type":"BreadcrumbList"},{"@type":"http://schema.org/Product","name":"List Item"}]
	</script>`
	raw = mustDoc(t, list)
	require.NotNil(t, raw)
	assert.Equal(t, "List Item", raw["name"])
}

func TestFindProduct_RecoversConcatenatedBlocks(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type":"Organization","name":"Shop"}{"@type":"Product","name":"Recovered"}
	</script>`

	raw := mustDoc(t, html)
	require.NotNil(t, raw)
	assert.Equal(t, "Recovered", raw["name"])
}

func TestFindProduct_MalformedReturnsNil(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Product", "name": </script>`
	assert.Nil(t, mustDoc(t, html))
}

func TestFindProduct_Microdata(t *testing.T) {
	html := `<div itemscope itemtype="https://schema.org/Product">
		<h1 itemprop="name">Lakme Lipstick</h1>
		<img itemprop="image" src="https://images.nykaa.com/lipstick.jpg">
		<div itemprop="offers" itemscope itemtype="https://schema.org/Offer">
			<meta itemprop="priceCurrency" content="INR">
			<span itemprop="price" content="349">₹349</span>
		</div>
		<div itemprop="review" itemscope itemtype="https://schema.org/Review">
			<p itemprop="reviewBody">Lovely shade</p>
		</div>
	</div>`

	raw := mustDoc(t, html)
	require.NotNil(t, raw)
	assert.Equal(t, "Product", raw["@type"])
	assert.Equal(t, "Lakme Lipstick", raw["name"])

	offers, ok := raw["offers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "349", offers["price"])

	rec := RecordFromStructured(raw, "https://www.nykaa.com/lipstick/p/1", price.NewNormalizer(price.RangeMin))
	assert.Equal(t, "₹349", rec.CurrentPrice())
	assert.Equal(t, []string{"https://images.nykaa.com/lipstick.jpg"}, rec.Images)
	assert.Equal(t, []string{"Lovely shade"}, rec.Reviews)
}

func TestFindProduct_RDFa(t *testing.T) {
	html := `<div vocab="https://schema.org/" typeof="Product">
		<span property="name">Steel Bottle</span>
		<div property="offers" typeof="Offer"><span property="price">599</span></div>
	</div>`

	raw := mustDoc(t, html)
	require.NotNil(t, raw)
	assert.Equal(t, "Steel Bottle", raw["name"])
}

func TestRecordFromStructured(t *testing.T) {
	raw := map[string]any{
		"@type":       "Product",
		"name":        "  Apple iPhone 15 ",
		"description": "A phone",
		"image":       []any{"/img/front.jpg", map[string]any{"url": "https://cdn.example.com/back.jpg"}},
		"offers": []any{
			map[string]any{"price": 79900.0},
			map[string]any{"lowPrice": "74,999"},
		},
		"review": []any{
			map[string]any{"reviewBody": "Great camera"},
			map[string]any{"description": "Battery ok"},
			map[string]any{"reviewBody": "Great camera"},
		},
	}

	rec := RecordFromStructured(raw, "https://www.example.com/p/iphone", price.NewNormalizer(price.RangeMin))

	assert.Equal(t, "Apple iPhone 15", rec.Name)
	assert.Equal(t, domain.ExtractorStructured, rec.Extractor)
	assert.Equal(t, []string{"https://www.example.com/img/front.jpg", "https://cdn.example.com/back.jpg"}, rec.Images)
	assert.Equal(t, "₹79,900", rec.Offers.Price)
	assert.Equal(t, rec.Offers.Price, rec.Price)
	assert.Equal(t, []string{"Great camera", "Battery ok"}, rec.Reviews)
}

func TestStructuredExtractor_NoOpinion(t *testing.T) {
	rec, err := NewStructuredExtractor(nil).Extract("<html><body><h1>Nothing here</h1></body></html>", "https://example.com/x")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
