package scorer

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Enqueue when every buffer slot is taken.
	ErrQueueFull = eris.New("scorer: queue full")
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = eris.New("scorer: queue closed")
)

// BatchScorer runs a tenant-wide scoring batch.
type BatchScorer interface {
	CalculateAllMatches(ctx context.Context, tenantID string) (*BatchResult, error)
}

// Queue runs tenant scoring batches in the background so callers never wait
// on them.
type Queue struct {
	scorer BatchScorer
	jobs   chan string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	log    *zap.Logger
}

// NewQueue starts workers that consume tenant ids until Close. Batches run
// under ctx.
func NewQueue(ctx context.Context, s BatchScorer, workers, size int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		scorer: s,
		jobs:   make(chan string, size),
		log:    zap.L().With(zap.String("component", "scorer.queue")),
	}
	for range workers {
		q.wg.Add(1)
		go q.work(ctx)
	}
	return q
}

// Enqueue schedules a batch for tenantID without blocking.
func (q *Queue) Enqueue(tenantID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- tenantID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued batches to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for tenantID := range q.jobs {
		res, err := q.scorer.CalculateAllMatches(ctx, tenantID)
		if err != nil {
			q.log.Error("batch scoring failed", zap.String("tenant_id", tenantID), zap.Error(err))
			continue
		}
		q.log.Info("batch scoring finished",
			zap.String("tenant_id", tenantID),
			zap.Int("scored", res.Scored),
			zap.Int("failed", res.Failed),
		)
	}
}
