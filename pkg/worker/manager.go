package worker

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"product-search/pkg/domain"
)

// DefaultPoliteDelay spaces consecutive page fetches
const DefaultPoliteDelay = 350 * time.Millisecond

// Manager feeds URLs to a worker one at a time with a polite delay between them
type Manager struct {
	worker  *Worker
	limiter *rate.Limiter
}

// NewManager creates a new manager. A non-positive delay disables spacing.
func NewManager(worker *Worker, politeDelay time.Duration) *Manager {
	limit := rate.Inf
	if politeDelay > 0 {
		limit = rate.Every(politeDelay)
	}
	return &Manager{
		worker:  worker,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// ProcessURLs processes urls sequentially. A URL that fails is logged and
// skipped. The outcomes of the URLs that produced a record are returned in
// input order; ErrNoResults is returned when none did.
func (m *Manager) ProcessURLs(ctx context.Context, urls []string) ([]*Outcome, error) {
	var outcomes []*Outcome
	var successCount, errorCount int

	for i, url := range urls {
		if err := m.limiter.Wait(ctx); err != nil {
			log.Printf("Manager: stopping after %d of %d URLs: %v", i, len(urls), err)
			break
		}

		out, err := m.worker.ProcessURL(ctx, url)
		if err != nil {
			errorCount++
			log.Printf("Manager: Error processing %s: %v", url, err)
			continue
		}
		successCount++
		outcomes = append(outcomes, out)
		log.Printf("Manager: [%d/%d] %s -> %s (%s)", i+1, len(urls), url, out.ID, out.Stage)
	}

	log.Printf("Manager: Completed: %d successful, %d errors (total: %d)", successCount, errorCount, len(urls))

	if successCount == 0 {
		return nil, domain.ErrNoResults
	}
	return outcomes, nil
}
