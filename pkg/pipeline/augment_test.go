package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-search/pkg/domain"
	"product-search/pkg/price"
)

func TestFallbackImage(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Apple iPhone 15 (128 GB)", PhoneImage},
		{"boAt Rockerz Headphones", HeadphoneImage},
		{"Acme Wireless Earbuds", HeadphoneImage},
		{"Steel Kettle", NoImage},
		{"", NoImage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FallbackImage(tt.name), tt.name)
	}
}

func TestAugment_PostConditionWithoutFetcher(t *testing.T) {
	store := newTestStore(t)
	rec := &domain.ProductRecord{Name: "Mystery Box", Images: []string{}, SourceURL: "https://shop.example.com/p/1"}
	rec.SetPrice("n/a")
	require.NoError(t, store.Save("box", rec))

	got, err := NewAugmenter(store, nil, nil).Augment(context.Background(), "box")
	require.NoError(t, err)

	assert.Equal(t, []string{NoImage}, got.Images)
	assert.Empty(t, got.CurrentPrice())

	stored, err := store.Load("box")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestAugment_LiveFetchFillsMissingFields(t *testing.T) {
	url := "https://shop.example.com/headphones/p/3"
	page := `<html><head><meta property="og:image" content="https://cdn.example.com/hp.jpg"></head>
<body><div class="pdp-price">Special price ₹2,499</div></body></html>`
	fetcher := newStubFetcher(map[string]string{url: page})

	store := newTestStore(t)
	require.NoError(t, store.Save("hp", &domain.ProductRecord{Name: "Studio Headphones", SourceURL: url}))

	got, err := NewAugmenter(store, fetcher, nil).Augment(context.Background(), "hp")
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls[url])
	assert.Equal(t, []string{"https://cdn.example.com/hp.jpg"}, got.Images)
	assert.Equal(t, "₹2,499", got.Offers.Price)
	assert.Equal(t, "₹2,499", got.Price)
	assert.True(t, price.IsCanonical(got.Offers.Price))
}

func TestAugment_FetchFailureStillGuaranteesImage(t *testing.T) {
	url := "https://shop.example.com/phone/p/9"
	store := newTestStore(t)
	require.NoError(t, store.Save("phone", &domain.ProductRecord{Name: "Apple iPhone 15", SourceURL: url}))

	got, err := NewAugmenter(store, newStubFetcher(nil), nil).Augment(context.Background(), "phone")
	require.NoError(t, err)
	assert.Equal(t, []string{PhoneImage}, got.Images)
}

func TestAugment_KeepsExistingValues(t *testing.T) {
	url := "https://shop.example.com/kettle/p/42"
	fetcher := newStubFetcher(map[string]string{url: `<html><body><span class="price">₹10,000</span></body></html>`})

	store := newTestStore(t)
	rec := &domain.ProductRecord{Name: "Kettle", Images: []string{"https://cdn.example.com/k.jpg"}, SourceURL: url}
	rec.SetPrice("Rs. 1299")
	require.NoError(t, store.Save("kettle", rec))

	got, err := NewAugmenter(store, fetcher, price.NewNormalizer(price.RangeMin)).Augment(context.Background(), "kettle")
	require.NoError(t, err)

	assert.Zero(t, fetcher.calls[url])
	assert.Equal(t, "₹1,299", got.CurrentPrice())
	assert.Equal(t, []string{"https://cdn.example.com/k.jpg"}, got.Images)
}

func TestAugment_StoredPriceBecomesWholeRupees(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		policy price.RangePolicy
		want   string
	}{
		{"paise", "Rs. 1,299.50", price.RangeMin, "₹1,299"},
		{"midpoint range", "₹499 - 1,000", price.RangeMidpoint, "₹749"},
		{"max range", "₹499 - 999", price.RangeMax, "₹999"},
		{"already canonical", "₹2,100", price.RangeMax, "₹2,100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			rec := &domain.ProductRecord{Name: "Kettle", Images: []string{"https://cdn.example.com/k.jpg"}}
			rec.SetPrice(tt.stored)
			require.NoError(t, store.Save("kettle", rec))

			got, err := NewAugmenter(store, nil, price.NewNormalizer(tt.policy)).Augment(context.Background(), "kettle")
			require.NoError(t, err)

			assert.Equal(t, tt.want, got.Offers.Price)
			assert.Equal(t, tt.want, got.Price)
			assert.Regexp(t, `^₹[\d,]+$`, got.Offers.Price)
			assert.True(t, price.IsCanonical(got.Offers.Price))
		})
	}
}

func TestAugment_MissingRecord(t *testing.T) {
	_, err := NewAugmenter(newTestStore(t), nil, nil).Augment(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAugmentAll(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(id, &domain.ProductRecord{Name: id}))
	}

	n, err := NewAugmenter(store, nil, nil).AugmentAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, id := range []string{"a", "b", "c"} {
		rec, err := store.Load(id)
		require.NoError(t, err)
		assert.False(t, rec.NeedsImage())
	}
}

func TestMergeMissing_NeverOverwrites(t *testing.T) {
	dst := &domain.ProductRecord{Name: "Kettle", Images: []string{"https://a/1.jpg"}}
	dst.SetPrice("₹1,299")

	src := &domain.ProductRecord{Name: "Other", Description: "desc", Images: []string{"https://b/2.jpg"}, Reviews: []string{"ok"}}
	src.SetPrice("₹5,000")

	assert.True(t, MergeMissing(dst, src))
	assert.Equal(t, "Kettle", dst.Name)
	assert.Equal(t, "desc", dst.Description)
	assert.Equal(t, "₹1,299", dst.CurrentPrice())
	assert.Equal(t, []string{"https://a/1.jpg"}, dst.Images)
	assert.Equal(t, []string{"ok"}, dst.Reviews)

	assert.False(t, MergeMissing(dst, src))
	assert.False(t, MergeMissing(dst, nil))
}

func TestMergeMissing_FillsPlaceholders(t *testing.T) {
	dst := &domain.ProductRecord{Name: domain.UnknownName}
	dst.SetPrice("None")

	src := &domain.ProductRecord{Name: "Fan", Images: []string{"https://b/2.jpg"}}
	src.SetPrice("₹2,100")

	assert.True(t, MergeMissing(dst, src))
	assert.Equal(t, "Fan", dst.Name)
	assert.Equal(t, "₹2,100", dst.Offers.Price)
	assert.Equal(t, []string{"https://b/2.jpg"}, dst.Images)
}
