// Package workqueue runs best-effort background jobs on a fixed worker pool.
package workqueue

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Queue manages a bounded queue of jobs of type T.
type Queue[T any] struct {
	name       string
	jobs       chan T
	workerFunc func(ctx context.Context, job T) error
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	stopped    bool
	mu         sync.RWMutex
}

// New creates a new queue with the specified buffer size and worker function.
func New[T any](name string, bufferSize int, workerFunc func(ctx context.Context, job T) error) *Queue[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue[T]{
		name:       name,
		jobs:       make(chan T, bufferSize),
		workerFunc: workerFunc,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the queue workers.
func (q *Queue[T]) Start(workerCount int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}
	q.started = true

	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			if err := q.workerFunc(q.ctx, job); err != nil {
				log.Warn().Err(err).Str("queue", q.name).Msg("background job failed")
			}
		}
	}
}

// Enqueue adds a job without blocking. It returns false when the job was dropped.
func (q *Queue[T]) Enqueue(job T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return false
	}

	select {
	case q.jobs <- job:
		return true
	default:
		log.Warn().Str("queue", q.name).Msg("queue full, dropping job")
		return false
	}
}

// Stop drains pending jobs and waits for the workers to exit.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
}

// QueueSize returns the current number of pending jobs.
func (q *Queue[T]) QueueSize() int {
	return len(q.jobs)
}
