package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"product-search/pkg/httpclient"
	"product-search/pkg/urls"
)

// DefaultEndpoint is the SerpAPI search endpoint
const DefaultEndpoint = "https://serpapi.com/search"

// DefaultSites are searched when the caller passes no site filters
var DefaultSites = []string{"amazon.in", "flipkart.com", "myntra.com", "nykaa.com", "snapdeal.com"}

// ErrMissingAPIKey is returned before any request when no key is configured
var ErrMissingAPIKey = errors.New("SERPAPI_KEY not found: add it to .env or the environment")

// Provider returns product page URLs for a text query
type Provider interface {
	Search(ctx context.Context, query string, count int, sites []string) ([]string, error)
}

// Config holds SerpAPI settings
type Config struct {
	Endpoint string
	APIKey   string
	// RateLimit is the minimum spacing between live requests
	RateLimit time.Duration
	Timeout   time.Duration
}

// SerpAPIProvider searches Google through SerpAPI and keeps only product pages
type SerpAPIProvider struct {
	endpoint string
	apiKey   string
	client   *httpclient.HTTPClient
	limiter  *rate.Limiter
	cache    *QueryCache
	filter   urls.UrlFilter
}

// NewSerpAPIProvider creates a provider. A nil cache disables caching.
func NewSerpAPIProvider(cfg Config, cache *QueryCache) *SerpAPIProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}
	return &SerpAPIProvider{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		client:   httpclient.NewClient(httpclient.BrowserClient, cfg.Timeout),
		limiter:  rate.NewLimiter(limit, 1),
		cache:    cache,
		filter:   urls.NewProductPageFilter(),
	}
}

type serpResponse struct {
	OrganicResults []struct {
		Link string `json:"link"`
		URL  string `json:"url"`
	} `json:"organic_results"`
}

// Search returns up to count product URLs. Identical queries are answered
// from the cache without a request.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, count int, sites []string) ([]string, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	key := CacheKey(query, sites, count)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			log.Printf("Search: cache hit for %q (%d urls)", query, len(cached))
			return cached, nil
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sites = siteList(sites)
	links, err := p.fetch(ctx, BuildQuery(query, sites), count*2)
	if err != nil {
		return nil, err
	}

	// Google does not always honour site: operators
	found := urls.Dedupe(urls.FilterURLs(ctx, links, p.filter, urls.NewSiteFilter(sites)))
	if len(found) > count {
		found = found[:count]
	}
	log.Printf("Search: %q returned %d links, kept %d product pages", query, len(links), len(found))

	if p.cache != nil {
		if err := p.cache.Put(key, found); err != nil {
			log.Printf("Search: failed to write cache: %v", err)
		}
	}
	return found, nil
}

// BuildQuery appends an OR-joined site: restriction to query
func BuildQuery(query string, sites []string) string {
	sites = siteList(sites)
	parts := make([]string, 0, len(sites))
	for _, s := range sites {
		parts = append(parts, "site:"+s)
	}
	return query + " " + strings.Join(parts, " OR ")
}

func siteList(sites []string) []string {
	if len(sites) == 0 {
		return DefaultSites
	}
	return sites
}

func (p *SerpAPIProvider) fetch(ctx context.Context, q string, num int) ([]string, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", q)
	params.Set("num", strconv.Itoa(num))
	params.Set("api_key", p.apiKey)

	resp, err := p.client.Get(ctx, p.endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read serpapi response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("serpapi error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data serpResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}

	links := make([]string, 0, len(data.OrganicResults))
	for _, r := range data.OrganicResults {
		link := r.Link
		if link == "" {
			link = r.URL
		}
		if link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}
