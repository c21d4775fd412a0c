package kv

import (
	"context"
	"sync"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/metrics"
)

// HandoffStore passes a finished mission's summary to the scoreboard.
// A read clears the slot so a summary is consumed at most once.
type HandoffStore interface {
	Write(ctx context.Context, summary model.ResultSummary) error
	ReadAndClear(ctx context.Context) (model.ResultSummary, bool)
}

// HandoffSlot is a single-slot HandoffStore. A write overwrites any
// unconsumed summary.
type HandoffSlot struct {
	mu      sync.Mutex
	summary model.ResultSummary
	full    bool
}

// NewHandoffSlot creates an empty slot.
func NewHandoffSlot() *HandoffSlot {
	return &HandoffSlot{}
}

// Write stores summary, replacing any previous one.
func (h *HandoffSlot) Write(_ context.Context, summary model.ResultSummary) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = summary
	h.full = true
	return nil
}

// ReadAndClear returns the stored summary and empties the slot.
func (h *HandoffSlot) ReadAndClear(_ context.Context) (model.ResultSummary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		metrics.RecordHandoffRead("miss")
		return model.ResultSummary{}, false
	}
	s := h.summary
	h.summary = model.ResultSummary{}
	h.full = false
	metrics.RecordHandoffRead("hit")
	return s, true
}

// HandoffRegistry keeps one independent pending summary per player key.
// The empty key is the anonymous player. An entry exists only while a
// summary is pending, so consumed players leave nothing behind.
type HandoffRegistry struct {
	mu      sync.Mutex
	pending map[string]model.ResultSummary
}

// NewHandoffRegistry creates an empty registry.
func NewHandoffRegistry() *HandoffRegistry {
	return &HandoffRegistry{pending: make(map[string]model.ResultSummary)}
}

// Slot returns the single-slot view of player's pending summary.
func (r *HandoffRegistry) Slot(player string) PlayerSlot {
	return PlayerSlot{registry: r, player: player}
}

// Len returns the number of players with a pending summary.
func (r *HandoffRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// PlayerSlot is one player's HandoffStore inside a registry.
type PlayerSlot struct {
	registry *HandoffRegistry
	player   string
}

// Write stores summary, replacing any unconsumed one.
func (p PlayerSlot) Write(_ context.Context, summary model.ResultSummary) error {
	p.registry.mu.Lock()
	defer p.registry.mu.Unlock()
	p.registry.pending[p.player] = summary
	return nil
}

// ReadAndClear returns the pending summary and drops the player's entry.
func (p PlayerSlot) ReadAndClear(_ context.Context) (model.ResultSummary, bool) {
	p.registry.mu.Lock()
	defer p.registry.mu.Unlock()
	s, ok := p.registry.pending[p.player]
	if !ok {
		metrics.RecordHandoffRead("miss")
		return model.ResultSummary{}, false
	}
	delete(p.registry.pending, p.player)
	metrics.RecordHandoffRead("hit")
	return s, true
}
