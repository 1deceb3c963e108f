package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	supabase "github.com/supabase-community/supabase-go"

	"product-search/pkg/index"
)

const documentsTable = "product_documents"

// searchFunction ranks documents with Postgres full-text search. It is called
// directly over SQL and through the Supabase REST rpc endpoint.
const searchFunction = "search_product_documents"

// PostgresIndex stores product documents in Postgres and ranks them with
// full-text search. Without a direct connection it falls back to the
// Supabase REST API.
type PostgresIndex struct {
	pg  DBProvider
	sdk *supabase.Client
}

// NewPostgresIndex creates an index over a direct database connection
func NewPostgresIndex(pg DBProvider) *PostgresIndex {
	return &PostgresIndex{pg: pg}
}

// NewSupabaseIndex creates an index that prefers the direct connection of c
// and uses its SDK client otherwise
func NewSupabaseIndex(c *SupabaseClient) *PostgresIndex {
	return &PostgresIndex{pg: c, sdk: c.SDK()}
}

type documentRow struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
	Rank     float64           `json:"rank,omitempty"`
}

func (x *PostgresIndex) hasDB() bool {
	return x.pg != nil && x.pg.DB() != nil
}

// EnsureSchema creates the documents table and the search function
func (x *PostgresIndex) EnsureSchema(ctx context.Context) error {
	if !x.hasDB() {
		// REST mode relies on the schema having been created out of band.
		return nil
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS product_documents (
  id TEXT PRIMARY KEY,
  document TEXT NOT NULL DEFAULT '',
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
  tsv TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', document)) STORED,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS product_documents_tsv_idx ON product_documents USING GIN (tsv);
CREATE OR REPLACE FUNCTION search_product_documents(query_text TEXT, match_count INT)
RETURNS TABLE (id TEXT, document TEXT, metadata JSONB, rank REAL)
LANGUAGE sql STABLE AS $$
  SELECT d.id, d.document, d.metadata, ts_rank(d.tsv, q) AS rank
  FROM product_documents d, to_tsquery('simple', query_text) q
  WHERE d.tsv @@ q
  ORDER BY rank DESC, d.id
  LIMIT match_count
$$;`

	if _, err := x.pg.DB().ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create product_documents: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the document stored under id
func (x *PostgresIndex) Upsert(ctx context.Context, id, text string, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}

	if !x.hasDB() {
		if x.sdk == nil {
			return fmt.Errorf("postgres DB not connected")
		}
		row := documentRow{ID: id, Document: text, Metadata: metadata}
		if _, _, err := x.sdk.From(documentsTable).Upsert(row, "id", "minimal", "").Execute(); err != nil {
			return fmt.Errorf("supabase upsert %s: %w", id, err)
		}
		return nil
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	const upsert = `
INSERT INTO product_documents (id, document, metadata, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (id) DO UPDATE
SET document = EXCLUDED.document, metadata = EXCLUDED.metadata, updated_at = now()`

	if _, err := x.pg.DB().ExecContext(ctx, upsert, id, text, string(meta)); err != nil {
		return fmt.Errorf("upsert document %s: %w", id, err)
	}
	return nil
}

// Query returns up to topK documents matching any term of text
func (x *PostgresIndex) Query(ctx context.Context, text string, topK int) ([]index.Match, error) {
	tsQuery := TSQuery(text)
	if tsQuery == "" || topK <= 0 {
		return nil, nil
	}

	var rows []documentRow
	var err error
	if x.hasDB() {
		rows, err = x.querySQL(ctx, tsQuery, topK)
	} else {
		rows, err = x.queryREST(tsQuery, topK)
	}
	if err != nil {
		return nil, err
	}

	matches := make([]index.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, index.Match{
			ID:       r.ID,
			Document: r.Document,
			Metadata: r.Metadata,
			Distance: 1 / (1 + r.Rank),
		})
	}
	return matches, nil
}

func (x *PostgresIndex) querySQL(ctx context.Context, tsQuery string, topK int) ([]documentRow, error) {
	rows, err := x.pg.DB().QueryContext(ctx,
		`SELECT id, document, metadata, rank FROM search_product_documents($1, $2)`, tsQuery, topK)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []documentRow
	for rows.Next() {
		var r documentRow
		var meta []byte
		if err := rows.Scan(&r.ID, &r.Document, &meta, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (x *PostgresIndex) queryREST(tsQuery string, topK int) ([]documentRow, error) {
	if x.sdk == nil {
		return nil, fmt.Errorf("postgres DB not connected")
	}
	body := map[string]any{"query_text": tsQuery, "match_count": topK}
	raw := x.sdk.Rpc(searchFunction, "", body)
	if raw == "" {
		return nil, fmt.Errorf("supabase rpc %s returned no body", searchFunction)
	}

	var out []documentRow
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	return out, nil
}

// TSQuery turns free text into an OR-query of its terms, safe to pass to
// to_tsquery
func TSQuery(text string) string {
	return strings.Join(index.Terms(text), " | ")
}
