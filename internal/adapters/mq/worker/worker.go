// Package worker persists queued score submissions in the background.
// Persistence is best-effort: failures are logged and counted, never
// reported back to the player.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/heartrobot/internal/adapters/mq/queue"
	"github.com/okian/heartrobot/internal/domain/dedupe"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

const (
	defaultWorkerCount    = 2
	metricsUpdateInterval = 5 * time.Second
	appendTimeout         = 10 * time.Second
)

// Appender writes a score record to durable storage.
type Appender interface {
	Append(ctx context.Context, rec queue.Submission) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Submission
	Len(ctx context.Context) int
}

// Worker persists submissions until its queue closes or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	store   Appender
	deduper dedupe.Deduper
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	root   logger.Logger
	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading q and writing to store.
func NewInMemoryWorker(q Queue, store Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.root = w.logger
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes submissions until the queue closes, ctx ends or Shutdown.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, rec); err != nil {
				w.logger.Error(ctx, "score submission failed",
					logger.String("mission", rec.MissionID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without draining the queue.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, rec queue.Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	if err := w.store.Append(ctx, rec); err != nil {
		metrics.RecordScoreSubmission("failed")
		if w.deduper != nil && rec.MissionID != "" {
			w.deduper.Unrecord(ctx, rec.MissionID)
		}
		return fmt.Errorf("append score: %w", err)
	}
	metrics.RecordScoreSubmission("stored")
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	stop     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one uses the default.
func NewPool(workerCount int, q Queue, store Appender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stop:    make(chan struct{}),
		logger:  logger.NewNop(),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, store, wopts...)
	}
	if len(p.workers) > 0 {
		p.logger = p.workers[0].root.Named("worker-pool")
	}
	metrics.UpdateSubmissionWorkers(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker and the backlog gauge updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			metrics.UpdateSubmissionQueue(p.queue.Len(ctx))
		}
	}
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx ends are stopped and the timeout is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
			timedOut = true
		}
	}
	metrics.UpdateSubmissionWorkers(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown timed out: %w", ctx.Err())
	}
	return nil
}
