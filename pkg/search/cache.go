package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CacheKey builds the composite cache key for a query
func CacheKey(query string, sites []string, count int) string {
	return fmt.Sprintf("q:%s|sites:%s|n:%d", query, strings.Join(sites, ","), count)
}

// QueryCache maps cache keys to URL lists in a single JSON file
type QueryCache struct {
	path string
	mu   sync.Mutex
}

// NewQueryCache creates a cache backed by path. The file is created lazily.
func NewQueryCache(path string) *QueryCache {
	return &QueryCache{path: path}
}

// Get returns the cached URLs for key
func (c *QueryCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	urls, ok := c.load()[key]
	return urls, ok
}

// Put stores urls under key, rewriting the whole file
func (c *QueryCache) Put(key string, urls []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load()
	if urls == nil {
		urls = []string{}
	}
	entries[key] = urls

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode query cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write query cache: %w", err)
	}
	return nil
}

// load reads the cache file. A missing or corrupt file is an empty cache.
func (c *QueryCache) load() map[string][]string {
	entries := make(map[string][]string)
	data, err := os.ReadFile(c.path)
	if err != nil {
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("Search: ignoring unreadable cache %s: %v", c.path, err)
		return make(map[string][]string)
	}
	return entries
}
