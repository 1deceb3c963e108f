package urls

import (
	"context"
	"net/url"
	"strings"
)

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// BaseURLFilter filters out base/root URLs
type BaseURLFilter struct{}

// NewBaseURLFilter creates a new base URL filter
func NewBaseURLFilter() *BaseURLFilter {
	return &BaseURLFilter{}
}

// ShouldKeep returns false if URL is a base/root URL
func (f *BaseURLFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		// If we can't parse it, don't filter it out (let it fail later if needed)
		return true, nil
	}

	path := strings.Trim(parsed.Path, "/")
	return path != "", nil
}

// AlreadyFetchedFilter filters out URLs that already exist in the provided set
type AlreadyFetchedFilter struct {
	fetchedURLs map[string]bool
}

// NewAlreadyFetchedFilter creates a new already-fetched filter
func NewAlreadyFetchedFilter(fetchedURLs map[string]bool) *AlreadyFetchedFilter {
	return &AlreadyFetchedFilter{
		fetchedURLs: fetchedURLs,
	}
}

// ShouldKeep returns false if URL is already in the fetched set
func (f *AlreadyFetchedFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return !f.fetchedURLs[urlStr], nil
}

// SiteFilter keeps URLs whose host is one of the given sites or a subdomain of one
type SiteFilter struct {
	sites []string
}

// NewSiteFilter creates a filter for sites such as "amazon.in"
func NewSiteFilter(sites []string) *SiteFilter {
	normalized := make([]string, 0, len(sites))
	for _, s := range sites {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			normalized = append(normalized, strings.TrimPrefix(s, "www."))
		}
	}
	return &SiteFilter{sites: normalized}
}

// ShouldKeep returns true when no sites are configured or the host matches one
func (f *SiteFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	if len(f.sites) == 0 {
		return true, nil
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false, nil
	}
	host := strings.ToLower(parsed.Hostname())
	for _, s := range f.sites {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true, nil
		}
	}
	return false, nil
}

// FilterURLs keeps the URLs every filter accepts, preserving order. A filter
// error drops that URL.
func FilterURLs(ctx context.Context, urls []string, filters ...UrlFilter) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		keep := true
		for _, f := range filters {
			ok, err := f.ShouldKeep(ctx, u)
			if err != nil || !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, u)
		}
	}
	return out
}

// Dedupe removes repeated URLs keeping the first occurrence
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
