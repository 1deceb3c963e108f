package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"product-search/pkg/domain"
	"product-search/pkg/pipeline"
)

// Mirror receives a copy of every finished record
type Mirror interface {
	SaveProduct(ctx context.Context, rec *domain.ProductRecord) error
}

// RecordIndexer makes a stored record searchable
type RecordIndexer interface {
	IndexRecord(ctx context.Context, id string, rec *domain.ProductRecord) error
}

// Config wires the per-URL collaborators. Only Processor is required.
type Config struct {
	Processor pipeline.ContentProcessor
	Augmenter pipeline.ContentAugmenter
	Indexer   RecordIndexer
	Mirror    Mirror
}

// Outcome is what a single URL produced
type Outcome struct {
	URL    string
	ID     string
	Record *domain.ProductRecord
	Stage  domain.Stage
}

// Worker processes product pages one URL at a time
type Worker struct {
	processor pipeline.ContentProcessor
	augmenter pipeline.ContentAugmenter
	indexer   RecordIndexer
	mirror    Mirror
}

// NewWorker creates a new worker
func NewWorker(cfg Config) *Worker {
	return &Worker{
		processor: cfg.Processor,
		augmenter: cfg.Augmenter,
		indexer:   cfg.Indexer,
		mirror:    cfg.Mirror,
	}
}

// ProcessURL runs extraction, augmentation, mirroring and indexing for url.
// Only a failed fetch or a failed write of the extracted record is returned
// as an error; later stages are logged and leave the outcome at the last
// stage that succeeded.
func (w *Worker) ProcessURL(ctx context.Context, url string) (*Outcome, error) {
	res, err := w.processor.Process(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrFetch) {
			return &Outcome{URL: url, Stage: domain.StageFetchFailed}, err
		}
		return nil, fmt.Errorf("failed to process %s: %w", url, err)
	}

	out := &Outcome{URL: url, ID: res.ID, Record: res.Record, Stage: res.Stage}

	if w.augmenter != nil {
		rec, err := w.augmenter.Augment(ctx, res.ID)
		if err != nil {
			log.Printf("Worker: augment %s: %v", url, err)
		} else {
			out.Record = rec
			out.Stage = domain.StageAugmented
		}
	}

	if w.mirror != nil {
		if err := w.mirror.SaveProduct(ctx, out.Record); err != nil {
			log.Printf("Worker: mirror %s: %v", url, err)
		}
	}

	if w.indexer != nil {
		if err := w.indexer.IndexRecord(ctx, out.ID, out.Record); err != nil {
			log.Printf("Worker: index %s: %v", url, err)
		} else {
			out.Stage = domain.StageIndexed
		}
	}

	return out, nil
}
