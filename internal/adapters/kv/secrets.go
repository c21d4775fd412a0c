// Package kv holds the small local key-value stores of the mission service:
// puzzle secrets, result handoff slots and difficulty preferences.
package kv

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/metrics"
)

const defaultSecretCapacity = 10_000

type secretEntry struct {
	id       string
	solution model.Solution
}

// SecretStore keeps puzzle solutions keyed by session id until a single
// Take consumes them.
type SecretStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

// NewSecretStore creates an empty bounded store.
func NewSecretStore(opts ...SecretOption) *SecretStore {
	s := &SecretStore{
		capacity: defaultSecretCapacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the solution for id, replacing any previous one.
func (s *SecretStore) Put(_ context.Context, id string, solution model.Solution) error {
	if id == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[id]; ok {
		s.order.Remove(el)
		delete(s.entries, id)
	}
	for s.order.Len() >= s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*secretEntry).id)
	}
	s.entries[id] = s.order.PushBack(&secretEntry{id: id, solution: solution})
	metrics.UpdatePuzzleSecrets(s.order.Len())
	return nil
}

// Take atomically reads and removes the solution for id.
func (s *SecretStore) Take(_ context.Context, id string) (model.Solution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[id]
	if !ok {
		return model.Solution{}, false
	}
	s.order.Remove(el)
	delete(s.entries, id)
	metrics.UpdatePuzzleSecrets(s.order.Len())
	return el.Value.(*secretEntry).solution, true
}

// Delete drops the solution for id if present.
func (s *SecretStore) Delete(ctx context.Context, id string) {
	_, _ = s.Take(ctx, id)
}

// Len returns the number of unconsumed solutions.
func (s *SecretStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
