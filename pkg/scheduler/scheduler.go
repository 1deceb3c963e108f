package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"product-search/pkg/replication"
)

// DefaultSpec runs the sweep every six hours
const DefaultSpec = "0 0 */6 * * *"

// Augmenter backfills every stored record
type Augmenter interface {
	AugmentAll(ctx context.Context) (int, error)
}

// Reindexer replays stored records into the index
type Reindexer interface {
	Reindex(ctx context.Context) (replication.Stats, error)
}

// Sweeper periodically augments stored records and then reindexes them
type Sweeper struct {
	cron      *cron.Cron
	spec      string
	augmenter Augmenter
	reindexer Reindexer

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a sweeper. An empty spec uses DefaultSpec; reindexer may be nil.
func NewSweeper(spec string, augmenter Augmenter, reindexer Reindexer) *Sweeper {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Sweeper{
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		spec:      spec,
		augmenter: augmenter,
		reindexer: reindexer,
	}
}

// Start schedules the sweep. Runs are skipped while a previous one is still going.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Printf("Scheduler: augmentation sweep scheduled (%s)", s.spec)
	return nil
}

// Stop cancels a running sweep and waits for it to return
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("Scheduler: sweep failed: %v", err)
	}
}

// RunOnce augments every stored record, then reindexes
func (s *Sweeper) RunOnce(ctx context.Context) error {
	log.Println("Scheduler: starting augmentation sweep")

	augmented, err := s.augmenter.AugmentAll(ctx)
	if err != nil {
		return fmt.Errorf("augment: %w", err)
	}
	log.Printf("Scheduler: augmented %d records", augmented)

	if s.reindexer == nil {
		return nil
	}
	stats, err := s.reindexer.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	log.Printf("Scheduler: reindexed %d records", stats.Indexed)
	return nil
}
