package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/heartrobot/internal/domain/model"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	settings

	mu       sync.RWMutex
	records  map[string]model.ScoreRecord
	byUser   map[string][]string
	missions map[string]struct{}
	index    scoreIndex
	closed   bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		settings: newSettings(opts),
		records:  make(map[string]model.ScoreRecord),
		byUser:   make(map[string][]string),
		missions: make(map[string]struct{}),
	}
}

// Append stores rec.
func (s *MemoryStore) Append(_ context.Context, rec model.ScoreRecord) error {
	rec = s.normalize(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if rec.MissionID != "" {
		if _, dup := s.missions[rec.MissionID]; dup {
			return nil
		}
		s.missions[rec.MissionID] = struct{}{}
	}
	s.records[rec.ID] = rec
	s.index.Insert(rec)
	if rec.UserID != "" {
		s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec.ID)
	}
	return nil
}

// TopN returns the n best records.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]model.ScoreRecord, error) {
	if err := validLimit(n); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.index.Top(n)
	out := make([]model.ScoreRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out, nil
}

// ByUser returns the n newest records of userID.
func (s *MemoryStore) ByUser(_ context.Context, userID string, n int) ([]model.ScoreRecord, error) {
	if err := validLimit(n); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := s.byUser[userID]
	out := make([]model.ScoreRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
