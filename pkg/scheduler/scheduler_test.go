package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-search/pkg/replication"
)

type recorder struct {
	mu    sync.Mutex
	steps []string
	runs  chan struct{}
	err   error
}

func newRecorder() *recorder {
	return &recorder{runs: make(chan struct{}, 10)}
}

func (r *recorder) AugmentAll(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, "augment")
	return 3, r.err
}

func (r *recorder) Reindex(context.Context) (replication.Stats, error) {
	r.mu.Lock()
	r.steps = append(r.steps, "reindex")
	r.mu.Unlock()
	r.runs <- struct{}{}
	return replication.Stats{Processed: 3, Indexed: 3}, nil
}

func TestRunOnce_AugmentsThenReindexes(t *testing.T) {
	rec := newRecorder()
	require.NoError(t, NewSweeper("", rec, rec).RunOnce(context.Background()))
	assert.Equal(t, []string{"augment", "reindex"}, rec.steps)
}

func TestRunOnce_AugmentFailureSkipsReindex(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("no records augmented")

	err := NewSweeper("", rec, rec).RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"augment"}, rec.steps)
}

func TestRunOnce_WithoutReindexer(t *testing.T) {
	rec := newRecorder()
	require.NoError(t, NewSweeper("", rec, nil).RunOnce(context.Background()))
	assert.Equal(t, []string{"augment"}, rec.steps)
}

func TestStart_InvalidSpec(t *testing.T) {
	rec := newRecorder()
	assert.Error(t, NewSweeper("not a cron spec", rec, rec).Start(context.Background()))
}

func TestStart_RunsOnSchedule(t *testing.T) {
	rec := newRecorder()
	s := NewSweeper("@every 1s", rec, rec)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-rec.runs:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run")
	}
}
