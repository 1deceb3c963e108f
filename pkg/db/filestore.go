package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"product-search/pkg/domain"
)

const (
	pagesDir    = "pages"
	productsDir = "products"
)

// FileStore keeps raw HTML under <root>/pages and one JSON record per URL
// under <root>/products, both named by Slug.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates the store directories under root
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{filepath.Join(root, pagesDir), filepath.Join(root, productsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", domain.ErrPersistence, dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

// Root returns the data directory
func (s *FileStore) Root() string {
	return s.root
}

// PagePath returns where the raw HTML of slug is kept
func (s *FileStore) PagePath(slug string) string {
	return filepath.Join(s.root, pagesDir, slug+".html")
}

// ProductPath returns where the record of slug is kept
func (s *FileStore) ProductPath(slug string) string {
	return filepath.Join(s.root, productsDir, slug+".json")
}

// SavePage writes the raw HTML of a fetched page
func (s *FileStore) SavePage(slug, html string) error {
	if err := writeFileAtomic(s.PagePath(slug), []byte(html)); err != nil {
		return fmt.Errorf("%w: save page %s: %v", domain.ErrPersistence, slug, err)
	}
	return nil
}

// LoadPage reads back the raw HTML of slug
func (s *FileStore) LoadPage(slug string) (string, error) {
	data, err := os.ReadFile(s.PagePath(slug))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: page %s", domain.ErrNotFound, slug)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read page %s: %v", domain.ErrPersistence, slug, err)
	}
	return string(data), nil
}

// Save writes rec as UTF-8 JSON with non-ASCII characters kept literal,
// replacing any previous record for slug.
func (s *FileStore) Save(slug string, rec *domain.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(slug, rec)
}

func (s *FileStore) save(slug string, rec *domain.ProductRecord) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, slug, err)
	}
	if err := writeFileAtomic(s.ProductPath(slug), data); err != nil {
		return fmt.Errorf("%w: save product %s: %v", domain.ErrPersistence, slug, err)
	}
	return nil
}

// Load reads the record stored for slug
func (s *FileStore) Load(slug string) (*domain.ProductRecord, error) {
	data, err := os.ReadFile(s.ProductPath(slug))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read product %s: %v", domain.ErrPersistence, slug, err)
	}
	var rec domain.ProductRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode product %s: %v", domain.ErrPersistence, slug, err)
	}
	return &rec, nil
}

// Update loads the record for slug, applies fn and writes it back while
// holding the store lock. Nothing is written when fn returns an error.
func (s *FileStore) Update(slug string, fn func(*domain.ProductRecord) error) (*domain.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Load(slug)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := s.save(slug, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the slugs of every stored record in lexical order
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, productsDir))
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", domain.ErrPersistence, err)
	}

	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(slugs)
	return slugs, nil
}

// EncodeRecord renders rec the way it is stored on disk
func EncodeRecord(rec *domain.ProductRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes through a temp file in the same directory so a
// crash never leaves a half-written record behind
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
