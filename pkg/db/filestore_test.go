package db

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-search/pkg/domain"
)

func TestSlug_Deterministic(t *testing.T) {
	u := "https://www.amazon.in/Acme-Earbuds/dp/B0ABCDEFGH"
	assert.Equal(t, Slug(u), Slug(u))
	assert.True(t, strings.HasPrefix(Slug(u), "www_amazon_in_Acme-Earbuds_dp_B0ABCDEFGH-"))
}

func TestSlug_IgnoresQueryAndFragment(t *testing.T) {
	base := "https://www.flipkart.com/acme-phone/p/itm123"
	assert.Equal(t, Slug(base), Slug(base+"?pid=MOB1&lid=xyz"))
	assert.Equal(t, Slug(base), Slug(base+"#reviews"))
	assert.Equal(t, Slug(base), Slug(base+"/"))
}

func TestSlug_DistinctForDistinctPaths(t *testing.T) {
	long := "https://www.nykaa.com/" + strings.Repeat("very-long-product-name-", 6)
	a, b := Slug(long+"red/p/1"), Slug(long+"blue/p/1")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, Slug("https://a.example.com/x"), Slug("https://b.example.com/x"))
	for _, s := range []string{a, b} {
		assert.LessOrEqual(t, len(s), maxSlugBody+9)
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, s)
	}
}

func newRecord() *domain.ProductRecord {
	rec := &domain.ProductRecord{
		Name:      "Acme Earbuds",
		Reviews:   []string{"Great <bass> & fit"},
		SourceURL: "https://www.amazon.in/dp/B0ABCDEFGH",
	}
	rec.SetPrice("₹1,499")
	rec.Finalize()
	return rec
}

func TestFileStore_SaveLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	rec := newRecord()
	slug := Slug(rec.SourceURL)
	require.NoError(t, store.Save(slug, rec))
	require.NoError(t, store.SavePage(slug, "<html></html>"))

	got, err := store.Load(slug)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	page, err := store.LoadPage(slug)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", page)

	raw, err := os.ReadFile(store.ProductPath(slug))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price": "₹1,499"`)
	assert.Contains(t, string(raw), `Great <bass> & fit`)
	assert.Contains(t, string(raw), "\n  \"name\"")
}

func TestFileStore_SaveIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	slug := Slug(newRecord().SourceURL)
	require.NoError(t, store.Save(slug, newRecord()))
	first, err := os.ReadFile(store.ProductPath(slug))
	require.NoError(t, err)

	require.NoError(t, store.Save(slug, newRecord()))
	second, err := os.ReadFile(store.ProductPath(slug))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	slugs, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{slug}, slugs)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.LoadPage("nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFileStore_Update(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	slug := "item"
	require.NoError(t, store.Save(slug, newRecord()))

	updated, err := store.Update(slug, func(r *domain.ProductRecord) error {
		r.AddImage("https://example.com/a.jpg")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, updated.Images)

	_, err = store.Update(slug, func(r *domain.ProductRecord) error {
		r.Name = "changed"
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := store.Load(slug)
	require.NoError(t, err)
	assert.Equal(t, "Acme Earbuds", got.Name)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, got.Images)
}

func TestTSQuery(t *testing.T) {
	assert.Equal(t, "best | earbuds | under | 2000", TSQuery("best earbuds under ₹2000?"))
	assert.Equal(t, "", TSQuery("'&|!"))
}
