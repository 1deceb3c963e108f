package productservice

import (
	"context"
	"fmt"
	"log"

	"product-search/pkg/domain"
	"product-search/pkg/search"
	"product-search/pkg/urls"
	"product-search/pkg/worker"
)

// KnownURLs reports the source URLs that already have a record
type KnownURLs interface {
	GetAllURLs(ctx context.Context) (map[string]bool, error)
}

// Service turns a query or a URL source into processed product records
type Service struct {
	search      search.Provider
	manager     *worker.Manager
	sites       []string
	urlFetchers []urls.URLsFetcher
	known       KnownURLs
}

// Config holds configuration for the service
type Config struct {
	Search  search.Provider
	Manager *worker.Manager
	// Sites restricts search results; empty means the provider defaults
	Sites []string
	// Fetchers are tried in order for ProcessSource
	Fetchers []urls.URLsFetcher
	// Known, when set, skips URLs that were already processed
	Known KnownURLs
}

// NewService creates a new product service
func NewService(cfg Config) *Service {
	return &Service{
		search:      cfg.Search,
		manager:     cfg.Manager,
		sites:       cfg.Sites,
		urlFetchers: cfg.Fetchers,
		known:       cfg.Known,
	}
}

// SearchProducts searches for query, then fetches and extracts up to count
// product pages. Pages that fail are skipped; ErrNoResults is returned when
// nothing usable came back.
func (s *Service) SearchProducts(ctx context.Context, query string, count int) ([]*worker.Outcome, error) {
	if s.search == nil {
		return nil, fmt.Errorf("no search provider configured")
	}
	found, err := s.search.Search(ctx, query, count, s.sites)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(found) == 0 {
		log.Printf("ProductService: search for %q found no product pages", query)
		return nil, domain.ErrNoResults
	}
	log.Printf("ProductService: processing %d URLs for %q", len(found), query)
	return s.manager.ProcessURLs(ctx, found)
}

// ProcessSource processes up to maxEntries product URLs taken from source.
// source is a single product URL, a URL list file or a sitemap.
func (s *Service) ProcessSource(ctx context.Context, source string, maxEntries int) ([]*worker.Outcome, error) {
	var candidates []string
	if urls.IsProductPage(source) {
		candidates = []string{source}
	} else {
		found, err := s.discover(source)
		if err != nil {
			return nil, err
		}
		candidates = found
	}

	filters := []urls.UrlFilter{
		urls.NewBaseURLFilter(),
		urls.NewProductPageFilter(),
	}
	if s.known != nil {
		existing, err := s.known.GetAllURLs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get fetched URLs: %w", err)
		}
		filters = append(filters, urls.NewAlreadyFetchedFilter(existing))
	}

	filtered := urls.Dedupe(urls.FilterURLs(ctx, candidates, filters...))
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no new product URLs in %s: %w", source, domain.ErrNoResults)
	}
	if maxEntries > 0 && len(filtered) > maxEntries {
		filtered = filtered[:maxEntries]
	}

	return s.manager.ProcessURLs(ctx, filtered)
}

// discover asks each fetcher in turn and returns the first non-empty list
func (s *Service) discover(source string) ([]string, error) {
	var lastErr error
	for _, fetcher := range s.urlFetchers {
		found, err := fetcher.Fetch(source)
		if err != nil {
			lastErr = err
			continue
		}
		if len(found) > 0 {
			return urls.Locations(found), nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all URL sources failed, last error: %w", lastErr)
	}
	return nil, fmt.Errorf("no URLs found in %s: %w", source, domain.ErrNoResults)
}
