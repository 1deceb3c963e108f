package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"product-search/pkg/domain"
	"product-search/pkg/index"
)

func TestIntegration_MongoMirror(t *testing.T) {
	uri := os.Getenv("PRODUCTAGENT_TEST_MONGO_URI")
	if testing.Short() || uri == "" {
		t.Skip("Skipping integration test (set PRODUCTAGENT_TEST_MONGO_URI)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := NewMongoMirror(MongoConfig{URI: uri, Database: "productsearch_test", Collection: "products_test"})
	require.NoError(t, client.Connect(ctx))
	defer client.Close(ctx)

	url := "https://www.nykaa.com/test-kajal/p/" + time.Now().Format("150405.000")
	rec := &domain.ProductRecord{Name: "Test Kajal", SourceURL: url}
	rec.SetPrice("₹299")
	rec.Finalize()

	require.NoError(t, client.SaveProduct(ctx, rec))
	rec.SetPrice("₹249")
	require.NoError(t, client.SaveProduct(ctx, rec))

	var got domain.ProductRecord
	require.NoError(t, client.collection.FindOne(ctx, bson.M{"source_url": url}).Decode(&got))
	assert.Equal(t, "₹249", got.CurrentPrice())

	n, err := client.collection.CountDocuments(ctx, bson.M{"source_url": url})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	known, err := client.GetAllURLs(ctx)
	require.NoError(t, err)
	assert.True(t, known[url])
	assert.False(t, known[url+"-missing"])
}

func TestIntegration_PostgresIndex(t *testing.T) {
	dsn := os.Getenv("PRODUCTAGENT_TEST_POSTGRES_DSN")
	if testing.Short() || dsn == "" {
		t.Skip("Skipping integration test (set PRODUCTAGENT_TEST_POSTGRES_DSN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg := NewPostgresClient(PostgresConfig{DSN: dsn})
	require.NoError(t, pg.Connect(ctx))
	defer pg.Close()

	idx := NewPostgresIndex(pg)
	require.NoError(t, idx.EnsureSchema(ctx))

	indexer := index.NewIndexer(idx)
	kettle := &domain.ProductRecord{Name: "Steel Kettle", Description: "Electric kettle", SourceURL: "https://www.amazon.in/dp/B0KETTLE01"}
	fan := &domain.ProductRecord{Name: "Desk Fan", Description: "Quiet table fan", SourceURL: "https://www.flipkart.com/desk-fan/p/itm9"}
	require.NoError(t, indexer.IndexRecord(ctx, "test-kettle", kettle))
	require.NoError(t, indexer.IndexRecord(ctx, "test-fan", fan))

	matches, err := indexer.Query(ctx, "electric kettle", 2)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "test-kettle", matches[0].ID)
	assert.Equal(t, kettle.SourceURL, matches[0].URL())
	assert.Greater(t, matches[0].Distance, 0.0)
	assert.LessOrEqual(t, matches[0].Distance, 1.0)
}
