package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"product-search/pkg/config"
	"product-search/pkg/db"
	"product-search/pkg/httpclient"
	"product-search/pkg/index"
	"product-search/pkg/pipeline"
	"product-search/pkg/price"
	"product-search/pkg/replication"
	"product-search/pkg/worker"
)

// app holds the long-lived handles shared by every subcommand
type app struct {
	cfg        *config.Config
	store      *db.FileStore
	client     *httpclient.HTTPClient
	normalizer *price.Normalizer
	indexer    *index.Indexer
	memory     *index.MemoryIndex
	mongo      *db.MongoMirror

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := db.NewFileStore(cfg.Data.Dir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		store:      store,
		client:     httpclient.NewClient(cfg.ClientType(), cfg.HTTP.Timeout),
		normalizer: price.NewNormalizer(cfg.RangePolicy()),
	}

	if err := a.connectIndex(ctx); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Mongo.URI != "" {
		mongo := db.NewMongoMirror(db.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err := mongo.Connect(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		a.mongo = mongo
		a.closers = append(a.closers, func() { _ = mongo.Close(context.Background()) })
	}

	return a, nil
}

func (a *app) connectIndex(ctx context.Context) error {
	switch a.cfg.Index.Backend {
	case config.BackendPostgres:
		pg := db.NewPostgresClient(db.PostgresConfig{
			DSN:  a.cfg.Index.PostgresDSN,
			Pool: db.PoolConfig{MaxOpenConns: 5, ConnMaxIdle: 5 * time.Minute},
		})
		if err := pg.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = pg.Close() })
		return a.useIndex(ctx, db.NewPostgresIndex(pg))

	case config.BackendSupabase:
		sb := db.NewSupabaseClient(db.SupabaseConfig{
			ConnectionString: a.cfg.Index.SupabaseConnectionString,
			SupabaseURL:      a.cfg.Index.SupabaseURL,
			SupabaseKey:      a.cfg.Index.SupabaseKey,
			Password:         a.cfg.Index.SupabasePassword,
			Pool:             db.PoolConfig{MaxOpenConns: 5},
		})
		if err := sb.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to supabase: %w", err)
		}
		a.closers = append(a.closers, func() { _ = sb.Close() })
		if !sb.HasDirectDB() {
			log.Printf("Supabase: no direct connection, using the REST API")
		}
		return a.useIndex(ctx, db.NewSupabaseIndex(sb))

	default:
		a.memory = index.NewMemoryIndex()
		a.indexer = index.NewIndexer(a.memory)
		return nil
	}
}

func (a *app) useIndex(ctx context.Context, idx *db.PostgresIndex) error {
	if err := idx.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare index schema: %w", err)
	}
	a.indexer = index.NewIndexer(idx)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) processor() *pipeline.Processor {
	p := pipeline.NewProcessor(a.client, a.store, a.normalizer)
	p.SetRescoutLive(a.cfg.Batch.RescoutLive)
	return p
}

func (a *app) augmenter() *pipeline.Augmenter {
	return pipeline.NewAugmenter(a.store, a.client, a.normalizer)
}

func (a *app) manager() *worker.Manager {
	wcfg := worker.Config{
		Processor: a.processor(),
		Augmenter: a.augmenter(),
		Indexer:   a.indexer,
	}
	if a.mongo != nil {
		wcfg.Mirror = a.mongo
	}
	return worker.NewManager(worker.NewWorker(wcfg), a.cfg.Batch.PoliteDelay)
}

func (a *app) reindexer() (*replication.Reindexer, error) {
	rcfg := replication.Config{Store: a.store, Indexer: a.indexer}
	if a.mongo != nil {
		rcfg.Mirror = a.mongo
	}
	return replication.NewReindexer(rcfg)
}

// warmMemoryIndex loads the stored records into the in-process index so the
// "none" backend can answer queries
func (a *app) warmMemoryIndex(ctx context.Context) error {
	if a.memory == nil {
		return nil
	}
	r, err := replication.NewReindexer(replication.Config{Store: a.store, Indexer: a.indexer})
	if err != nil {
		return err
	}
	_, err = r.Reindex(ctx)
	return err
}
