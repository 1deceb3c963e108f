package pipeline

import (
	"context"
	"fmt"
	"log"

	"product-search/pkg/content"
	"product-search/pkg/db"
	"product-search/pkg/domain"
	"product-search/pkg/price"
	"product-search/pkg/sites"
)

// Processor fetches a product page, runs the extractor cascade, re-scouts
// image and price, and persists the page and its record
type Processor struct {
	fetcher Fetcher
	store   Store

	structured content.Extractor
	sites      content.Extractor
	generic    content.Extractor
	rescouter  *Rescouter

	rescoutLive bool
}

// NewProcessor wires the default cascade: structured data, the site
// dispatcher, then the generic fallback
func NewProcessor(fetcher Fetcher, store Store, normalizer *price.Normalizer) *Processor {
	if normalizer == nil {
		normalizer = price.NewNormalizer(price.RangeMin)
	}
	return &Processor{
		fetcher:    fetcher,
		store:      store,
		structured: content.NewStructuredExtractor(normalizer),
		sites:      sites.NewDispatcher(normalizer),
		generic:    content.NewGenericExtractor(normalizer),
		rescouter:  NewRescouter(normalizer),
	}
}

// SetRescoutLive makes the re-scout pass fetch the page again instead of
// reusing the HTML already downloaded
func (p *Processor) SetRescoutLive(live bool) {
	p.rescoutLive = live
}

// Process handles one URL. Fetch failures wrap domain.ErrFetch and store
// failures wrap domain.ErrPersistence; extractor failures never surface.
func (p *Processor) Process(ctx context.Context, url string) (*Result, error) {
	htmlContent, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", url, err)
	}

	rec := p.Extract(htmlContent, url)
	rec.SourceURL = url

	if rec.NeedsPrice() || rec.NeedsImage() {
		p.rescout(ctx, rec, htmlContent, url)
	}
	rec.Finalize()

	id := db.Slug(url)
	if err := p.store.SavePage(id, htmlContent); err != nil {
		return nil, err
	}
	if err := p.store.Save(id, rec); err != nil {
		return nil, err
	}

	log.Printf("Processor: saved %s (%s extractor, price %q, %d images)", id, rec.Extractor, rec.CurrentPrice(), len(rec.Images))
	return &Result{ID: id, Record: rec, Stage: domain.StageExtracted}, nil
}

// Extract runs structured data, then the site extractor, then the generic
// fallback, stopping at the first usable record. It never returns nil.
func (p *Processor) Extract(htmlContent, url string) *domain.ProductRecord {
	if rec := p.run(p.structured, htmlContent, url); rec != nil && !rec.IsEmpty() {
		return rec
	}
	// The site dispatcher marks a usable record with its source URL.
	if rec := p.run(p.sites, htmlContent, url); rec != nil && rec.SourceURL != "" {
		return rec
	}
	if rec := p.run(p.generic, htmlContent, url); rec != nil {
		return rec
	}
	return &domain.ProductRecord{Extractor: domain.ExtractorFallback}
}

// run downgrades extractor errors to "no opinion"
func (p *Processor) run(e content.Extractor, htmlContent, url string) *domain.ProductRecord {
	if e == nil {
		return nil
	}
	rec, err := e.Extract(htmlContent, url)
	if err != nil {
		log.Printf("Processor: %s extractor failed for %s: %v", e.Name(), url, err)
		return nil
	}
	return rec
}

func (p *Processor) rescout(ctx context.Context, rec *domain.ProductRecord, htmlContent, url string) {
	scoutHTML := htmlContent
	if p.rescoutLive {
		live, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			log.Printf("Processor: live re-scout of %s failed, reusing fetched page: %v", url, err)
		} else {
			scoutHTML = live
		}
	}

	found := p.rescouter.Scout(scoutHTML, url)
	if MergeMissing(rec, found) {
		log.Printf("Processor: re-scout filled price %q, images %d for %s", rec.CurrentPrice(), len(rec.Images), url)
	}
}
