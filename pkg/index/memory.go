package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// MemoryIndex ranks documents by query-term overlap. It backs the
// "none" index backend and tests.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]Match
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Match)}
}

// Upsert replaces the document stored under id
func (m *MemoryIndex) Upsert(_ context.Context, id, text string, metadata map[string]string) error {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = Match{ID: id, Document: text, Metadata: meta}
	return nil
}

// Len returns the number of stored documents
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Query returns documents sharing at least one term with text
func (m *MemoryIndex) Query(_ context.Context, text string, topK int) ([]Match, error) {
	terms := Terms(text)
	if len(terms) == 0 || topK <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Match
	for _, doc := range m.docs {
		docTerms := make(map[string]bool)
		for _, t := range Terms(doc.Document) {
			docTerms[t] = true
		}
		hits := 0
		for _, t := range terms {
			if docTerms[t] {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		doc.Distance = 1 - float64(hits)/float64(len(terms))
		out = append(out, doc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// Terms splits text into distinct lowercase letter/digit runs
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
