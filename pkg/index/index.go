package index

import (
	"context"
	"fmt"
	"strings"

	"product-search/pkg/domain"
)

// Match is one ranked hit from the retrieval index. Lower Distance is closer.
type Match struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// URL returns the source URL carried in the metadata
func (m Match) URL() string {
	return m.Metadata["url"]
}

// Title returns the product title carried in the metadata
func (m Match) Title() string {
	return m.Metadata["title"]
}

// Index is the retrieval backend products are pushed into
type Index interface {
	Upsert(ctx context.Context, id, text string, metadata map[string]string) error
	Query(ctx context.Context, text string, topK int) ([]Match, error)
}

// BuildText flattens a record into the document handed to the index
func BuildText(rec *domain.ProductRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n\n", rec.Name)
	fmt.Fprintf(&b, "DESCRIPTION: %s\n\n", rec.Description)
	fmt.Fprintf(&b, "PRICE: %s\n\n", rec.CurrentPrice())
	b.WriteString("REVIEWS:\n")
	b.WriteString(strings.Join(rec.Reviews, "\n"))
	fmt.Fprintf(&b, "\n\nURL: %s", rec.SourceURL)
	return strings.TrimSpace(b.String())
}

// Metadata returns the fields stored next to a document
func Metadata(rec *domain.ProductRecord) map[string]string {
	return map[string]string{
		"url":   rec.SourceURL,
		"title": rec.Name,
	}
}

// Indexer pushes product records into an Index
type Indexer struct {
	index Index
}

// NewIndexer wraps idx
func NewIndexer(idx Index) *Indexer {
	return &Indexer{index: idx}
}

// IndexRecord upserts rec under id. Failures are wrapped in ErrIndex.
func (i *Indexer) IndexRecord(ctx context.Context, id string, rec *domain.ProductRecord) error {
	if err := i.index.Upsert(ctx, id, BuildText(rec), Metadata(rec)); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrIndex, id, err)
	}
	return nil
}

// Query returns up to topK documents for text
func (i *Indexer) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	matches, err := i.index.Query(ctx, text, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrIndex, err)
	}
	return matches, nil
}
