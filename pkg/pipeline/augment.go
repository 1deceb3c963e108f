package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"

	"product-search/pkg/domain"
	"product-search/pkg/price"
)

// Placeholder images used when no page image could be recovered
const (
	PhoneImage     = "https://upload.wikimedia.org/wikipedia/commons/3/31/IPhone_14_Pro_Black.jpg"
	HeadphoneImage = "https://upload.wikimedia.org/wikipedia/commons/4/4e/Headphones.jpg"
	NoImage        = "https://upload.wikimedia.org/wikipedia/commons/d/dd/No_image_available.svg"
)

// FallbackImage picks a placeholder from keywords in the product name
func FallbackImage(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "iphone"), strings.Contains(n, "apple"):
		return PhoneImage
	case strings.Contains(n, "headphone"), strings.Contains(n, "earbud"):
		return HeadphoneImage
	default:
		return NoImage
	}
}

// Augmenter backfills missing price and image on stored records. After
// Augment a record always has an image, and any price it carries is canonical.
type Augmenter struct {
	store      Store
	fetcher    Fetcher
	rescouter  *Rescouter
	normalizer *price.Normalizer
}

// NewAugmenter creates an augmenter. A nil fetcher disables live re-fetching.
func NewAugmenter(store Store, fetcher Fetcher, normalizer *price.Normalizer) *Augmenter {
	if normalizer == nil {
		normalizer = price.NewNormalizer(price.RangeMin)
	}
	return &Augmenter{
		store:      store,
		fetcher:    fetcher,
		rescouter:  NewRescouter(normalizer),
		normalizer: normalizer,
	}
}

// Augment loads the record stored under id, fills what is missing and
// writes it back
func (a *Augmenter) Augment(ctx context.Context, id string) (*domain.ProductRecord, error) {
	rec, err := a.store.Load(id)
	if err != nil {
		return nil, err
	}

	// Fetch outside the store lock; only the merge runs under it.
	var scouted *domain.ProductRecord
	if (a.needsPrice(rec) || rec.NeedsImage()) && rec.SourceURL != "" && a.fetcher != nil {
		htmlContent, err := a.fetcher.Fetch(ctx, rec.SourceURL)
		if err != nil {
			log.Printf("Augmenter: live fetch of %s failed: %v", rec.SourceURL, err)
		} else {
			scouted = a.rescouter.Scout(htmlContent, rec.SourceURL)
		}
	}

	return a.store.Update(id, func(r *domain.ProductRecord) error {
		a.Apply(r, scouted)
		return nil
	})
}

// Apply enforces the augmentation post-condition on rec using scouted as the
// source for missing fields
func (a *Augmenter) Apply(rec, scouted *domain.ProductRecord) {
	a.normalizePrice(rec)
	MergeMissing(rec, scouted)
	a.normalizePrice(rec)

	if rec.NeedsImage() {
		rec.AddImage(FallbackImage(rec.Name))
	}
	rec.Finalize()
}

// AugmentAll augments every stored record, logging and skipping failures
func (a *Augmenter) AugmentAll(ctx context.Context) (int, error) {
	ids, err := a.store.List()
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := a.Augment(ctx, id); err != nil {
			log.Printf("Augmenter: skipping %s: %v", id, err)
			continue
		}
		done++
	}
	log.Printf("Augmenter: augmented %d of %d records", done, len(ids))
	if done == 0 && len(ids) > 0 {
		return 0, errors.New("no record could be augmented")
	}
	return done, nil
}

func (a *Augmenter) needsPrice(rec *domain.ProductRecord) bool {
	if rec.NeedsPrice() {
		return true
	}
	_, ok := a.normalizer.Canonicalize(rec.CurrentPrice())
	return !ok
}

// normalizePrice rewrites a stored price into canonical form. Placeholders
// and values without any amount are cleared so they count as missing.
func (a *Augmenter) normalizePrice(rec *domain.ProductRecord) {
	current := rec.CurrentPrice()
	if current == "" || price.IsCanonical(current) {
		return
	}
	if domain.IsMissingPrice(current) {
		rec.SetPrice("")
		return
	}
	if p, ok := a.normalizer.Canonicalize(current); ok {
		rec.SetPrice(p)
		return
	}
	rec.SetPrice("")
}
