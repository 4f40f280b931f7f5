// Package worker runs the rebuild workers that drain the resync queue. Each
// job is a full, idempotent recompute of one user's derived state, delegated
// back to the engine, so crashed or repeated jobs converge to the same rows
// the synchronous submission path would have written.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/meeplerank/internal/adapters/mq/queue"
	"github.com/okian/meeplerank/pkg/logger"
	"github.com/okian/meeplerank/pkg/metrics"
)

const defaultWorkerCount = 2

// Rebuilder recomputes all derived state for one user.
type Rebuilder interface {
	RebuildUser(ctx context.Context, userID string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// Worker processes rebuild jobs until stopped.
type Worker struct {
	queue     Queue
	rebuilder Rebuilder
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, r Rebuilder, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		rebuilder: r,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "rebuild failed",
					logger.String("userID", job.UserID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() { metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds())) }()

	if err := w.rebuilder.RebuildUser(ctx, job.UserID); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("rebuild user %s: %w", job.UserID, err)
	}
	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*Worker
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, q Queue, r Rebuilder) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{workers: make([]*Worker, workerCount)}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, r, WithName("rebuild-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop(ctx context.Context) error {
	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return firstErr
}
