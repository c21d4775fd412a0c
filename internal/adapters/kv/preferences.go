package kv

import (
	"context"
	"sync"

	"github.com/okian/heartrobot/internal/domain/difficulty"
	"github.com/okian/heartrobot/internal/domain/model"
)

// PreferenceStore remembers the chosen difficulty per player key.
type PreferenceStore struct {
	mu     sync.RWMutex
	levels map[string]model.Level
}

// NewPreferenceStore creates an empty store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{levels: make(map[string]model.Level)}
}

// SetLevel stores the level for player. Unknown names are stored as Easy.
func (p *PreferenceStore) SetLevel(_ context.Context, player string, level string) model.Level {
	resolved := difficulty.Resolve(level).Name
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[player] = resolved
	return resolved
}

// Level returns the stored level for player, Easy when none is stored.
func (p *PreferenceStore) Level(_ context.Context, player string) model.Level {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if l, ok := p.levels[player]; ok {
		return l
	}
	return model.LevelEasy
}
