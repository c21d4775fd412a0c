// Package queue buffers score submissions between finished missions and the
// workers that persist them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Submission is the payload flowing through the queue.
type Submission = model.ScoreRecord

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission. It fails with ErrFull or ErrClosed and never blocks.
	Enqueue(ctx context.Context, s Submission) error

	// Dequeue returns the channel consumers read from. It is closed after
	// Close once the backlog is drained.
	Dequeue(ctx context.Context) <-chan Submission

	// Len returns the number of waiting submissions.
	Len(ctx context.Context) int

	// Close stops accepting submissions.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	items    chan Submission
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates an empty queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Submission, q.capacity)
	metrics.UpdateSubmissionQueue(0)
	return q
}

// Enqueue adds a submission without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordScoreSubmission("rejected_closed")
		return ErrClosed
	}

	select {
	case q.items <- s:
		metrics.UpdateSubmissionQueue(len(q.items))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		metrics.RecordScoreSubmission("rejected_full")
		return ErrFull
	}
}

// Dequeue returns the submissions channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Submission {
	return q.items
}

// Len returns the backlog size.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.items)
	metrics.UpdateSubmissionQueue(n)
	return n
}

// Close stops accepting submissions. Waiting ones can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
