package pipeline

import (
	"context"

	"product-search/pkg/domain"
)

// Fetcher downloads the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Store persists raw pages and product records keyed by slug
type Store interface {
	SavePage(slug, html string) error
	Save(slug string, rec *domain.ProductRecord) error
	Load(slug string) (*domain.ProductRecord, error)
	Update(slug string, fn func(*domain.ProductRecord) error) (*domain.ProductRecord, error)
	List() ([]string, error)
}

// Result is the outcome of processing one URL
type Result struct {
	ID     string
	Record *domain.ProductRecord
	Stage  domain.Stage
}

// ContentProcessor turns a URL into a persisted product record
type ContentProcessor interface {
	Process(ctx context.Context, url string) (*Result, error)
}

// ContentAugmenter backfills a persisted record
type ContentAugmenter interface {
	Augment(ctx context.Context, id string) (*domain.ProductRecord, error)
}
