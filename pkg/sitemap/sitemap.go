package sitemap

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"

	"product-search/pkg/httpclient"
	"product-search/pkg/urls"
)

// Entry represents a single URL entry from a sitemap
type Entry struct {
	Location   string // URL of the page
	LastMod    string // Last modification date (optional)
	Priority   string // Priority value (optional)
	ChangeFreq string // Change frequency (optional)
}

// urlSet represents a regular sitemap structure
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Location   string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	Priority   string `xml:"priority,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// sitemapIndex represents a sitemap index structure
type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Location string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
}

// maxIndexDepth bounds nested sitemap indexes
const maxIndexDepth = 3

var gzipMagic = []byte{0x1f, 0x8b}

// Parser fetches retailer sitemaps and keeps product detail URLs
type Parser struct {
	client *httpclient.HTTPClient
	filter urls.UrlFilter
}

// NewParser creates a new sitemap parser that keeps only product pages
func NewParser(client *httpclient.HTTPClient) *Parser {
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient, 0)
	}
	return &Parser{
		client: client,
		filter: urls.NewProductPageFilter(),
	}
}

// ParseFromURL fetches and parses a sitemap or sitemap index, returning
// every entry. Plain and gzip-compressed sitemaps are both accepted.
func (p *Parser) ParseFromURL(ctx context.Context, sitemapURL string) ([]Entry, error) {
	return p.parseFromURL(ctx, sitemapURL, 0)
}

func (p *Parser) parseFromURL(ctx context.Context, sitemapURL string, depth int) ([]Entry, error) {
	resp, err := p.client.Get(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reader, err := decompress(resp.Body)
	if err != nil {
		return nil, err
	}

	// Read first few bytes to detect sitemap type
	buffered := bufio.NewReaderSize(reader, 1024)
	head, err := buffered.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read sitemap: %w", err)
	}

	if !bytes.Contains(head, []byte("sitemapindex")) {
		return p.parseSitemap(buffered)
	}
	if depth >= maxIndexDepth {
		return nil, fmt.Errorf("sitemap index nested deeper than %d levels", maxIndexDepth)
	}

	sitemapURLs, err := p.parseSitemapIndex(buffered)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap index: %w", err)
	}
	if len(sitemapURLs) == 0 {
		return nil, fmt.Errorf("sitemap index contained no sitemap URLs")
	}

	var allEntries []Entry
	for _, child := range sitemapURLs {
		entries, err := p.parseFromURL(ctx, child, depth+1)
		if err != nil {
			log.Printf("Sitemap: skipping %s: %v", child, err)
			continue
		}
		allEntries = append(allEntries, entries...)
	}

	if len(allEntries) == 0 {
		return nil, fmt.Errorf("no entries found in any sitemap from index")
	}
	return allEntries, nil
}

// ProductURLs returns the product detail URLs listed in a sitemap, deduplicated
func (p *Parser) ProductURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	entries, err := p.ParseFromURL(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	locations := make([]string, 0, len(entries))
	for _, e := range entries {
		locations = append(locations, e.Location)
	}
	return urls.Dedupe(urls.FilterURLs(ctx, locations, p.filter)), nil
}

// Fetch implements urls.URLsFetcher
func (p *Parser) Fetch(sitemapURL string) ([]urls.URL, error) {
	found, err := p.ProductURLs(context.Background(), sitemapURL)
	if err != nil {
		return nil, err
	}
	out := make([]urls.URL, 0, len(found))
	for _, u := range found {
		out = append(out, urls.URL{Location: u})
	}
	return out, nil
}

// decompress transparently unwraps gzip bodies
func decompress(body io.Reader) (io.Reader, error) {
	buffered := bufio.NewReader(body)
	magic, err := buffered.Peek(2)
	if err != nil || !bytes.Equal(magic, gzipMagic) {
		return buffered, nil
	}
	gz, err := gzip.NewReader(buffered)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip sitemap: %w", err)
	}
	return gz, nil
}

// parseSitemapIndex parses a sitemap index file
func (p *Parser) parseSitemapIndex(reader io.Reader) ([]string, error) {
	var index sitemapIndex
	if err := xml.NewDecoder(reader).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap index XML: %w", err)
	}

	locations := make([]string, 0, len(index.Sitemaps))
	for _, ref := range index.Sitemaps {
		if ref.Location != "" {
			locations = append(locations, ref.Location)
		}
	}
	return locations, nil
}

// parseSitemap parses a regular sitemap XML
func (p *Parser) parseSitemap(reader io.Reader) ([]Entry, error) {
	var set urlSet
	if err := xml.NewDecoder(reader).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode sitemap XML: %w", err)
	}

	entries := make([]Entry, 0, len(set.URLs))
	for _, u := range set.URLs {
		if u.Location == "" {
			continue
		}
		entries = append(entries, Entry{
			Location:   u.Location,
			LastMod:    u.LastMod,
			Priority:   u.Priority,
			ChangeFreq: u.ChangeFreq,
		})
	}
	return entries, nil
}
