package replication

import (
	"context"
	"fmt"
	"log"
	"sync"

	"product-search/pkg/domain"
)

// RecordSource lists and loads stored product records
type RecordSource interface {
	List() ([]string, error)
	Load(slug string) (*domain.ProductRecord, error)
}

// RecordIndexer makes a stored record searchable
type RecordIndexer interface {
	IndexRecord(ctx context.Context, id string, rec *domain.ProductRecord) error
}

// Mirror receives a copy of every replayed record
type Mirror interface {
	SaveProduct(ctx context.Context, rec *domain.ProductRecord) error
}

const (
	defaultBatchSize = 100
	defaultWorkers   = 5
)

// Config wires the reindex dependencies. Indexer and Mirror are optional,
// but at least one of them must be set.
type Config struct {
	Store     RecordSource
	Indexer   RecordIndexer
	Mirror    Mirror
	BatchSize int
	Workers   int
}

// Stats summarizes a reindex run
type Stats struct {
	Processed int
	Indexed   int
	Mirrored  int
	Failed    int
}

// Reindexer replays every stored record into the retrieval index and the
// product mirror
type Reindexer struct {
	store     RecordSource
	indexer   RecordIndexer
	mirror    Mirror
	batchSize int
	workers   int
}

func NewReindexer(cfg Config) (*Reindexer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("product store is required")
	}
	if cfg.Indexer == nil && cfg.Mirror == nil {
		return nil, fmt.Errorf("an index or a mirror is required")
	}
	r := &Reindexer{
		store:     cfg.Store,
		indexer:   cfg.Indexer,
		mirror:    cfg.Mirror,
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	if r.workers <= 0 {
		r.workers = defaultWorkers
	}
	return r, nil
}

// Reindex replays all stored records. A record that fails to load, index or
// mirror is counted and skipped. An error is returned only when the store
// cannot be listed or when records exist but none could be indexed.
func (r *Reindexer) Reindex(ctx context.Context) (Stats, error) {
	ids, err := r.store.List()
	if err != nil {
		return Stats{}, fmt.Errorf("list stored products: %w", err)
	}

	log.Printf("Reindex: loaded %d product ids, processing in batches...", len(ids))

	stats := r.processBatches(ctx, ids)

	log.Printf("Reindex complete: processed %d, indexed %d, mirrored %d, failed %d",
		stats.Processed, stats.Indexed, stats.Mirrored, stats.Failed)

	if len(ids) > 0 && r.indexer != nil && stats.Indexed == 0 {
		return stats, fmt.Errorf("none of %d products could be indexed: %w", len(ids), domain.ErrIndex)
	}
	return stats, nil
}

// processBatches splits ids into batches and runs them on a fixed pool
func (r *Reindexer) processBatches(ctx context.Context, ids []string) Stats {
	type batchJob struct {
		batch []string
		start int
		end   int
	}

	numBatches := (len(ids) + r.batchSize - 1) / r.batchSize
	jobs := make(chan batchJob, numBatches)
	results := make(chan Stats, numBatches)

	for start := 0; start < len(ids); start += r.batchSize {
		end := calculateBatchEnd(start, r.batchSize, len(ids))
		jobs <- batchJob{batch: ids[start:end], start: start, end: end}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- r.processBatch(ctx, job.batch, job.start, job.end)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total Stats
	for res := range results {
		total.Processed += res.Processed
		total.Indexed += res.Indexed
		total.Mirrored += res.Mirrored
		total.Failed += res.Failed
		if total.Processed%1000 == 0 {
			log.Printf("Reindex: progress %d/%d", total.Processed, len(ids))
		}
	}
	return total
}

func calculateBatchEnd(start, batchSize, totalLen int) int {
	end := start + batchSize
	if end > totalLen {
		return totalLen
	}
	return end
}

func (r *Reindexer) processBatch(ctx context.Context, batch []string, start, end int) Stats {
	log.Printf("Reindex: batch [%d:%d] (%d products)", start, end, len(batch))

	var stats Stats
	for _, id := range batch {
		stats.Processed++
		if ctx.Err() != nil {
			stats.Failed++
			continue
		}

		rec, err := r.store.Load(id)
		if err != nil {
			log.Printf("Reindex: load %s: %v", id, err)
			stats.Failed++
			continue
		}

		ok := true
		if r.indexer != nil {
			if err := r.indexer.IndexRecord(ctx, id, rec); err != nil {
				log.Printf("Reindex: index %s: %v", id, err)
				ok = false
			} else {
				stats.Indexed++
			}
		}
		if r.mirror != nil {
			if err := r.mirror.SaveProduct(ctx, rec); err != nil {
				log.Printf("Reindex: mirror %s: %v", id, err)
				ok = false
			} else {
				stats.Mirrored++
			}
		}
		if !ok {
			stats.Failed++
		}
	}
	return stats
}
