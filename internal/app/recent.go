package service

import (
	"sync"

	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/session"
)

const defaultRecentCapacity = 50

// finishedMission is a mission that ended on this instance. Its result may
// not have reached the score store yet.
type finishedMission struct {
	userID   string
	result   model.LocalResult
	snapshot session.Snapshot
}

// recentResults is a fixed-size ring of finished missions, oldest first.
type recentResults struct {
	mu    sync.RWMutex
	items []finishedMission
	next  int
	full  bool
}

func newRecentResults(capacity int) *recentResults {
	if capacity <= 0 {
		capacity = defaultRecentCapacity
	}
	return &recentResults{items: make([]finishedMission, capacity)}
}

func (r *recentResults) Add(f finishedMission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[r.next] = f
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

func (r *recentResults) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.items)
	}
	return r.next
}

// Results returns the local results accepted by keep, oldest first.
func (r *recentResults) Results(keep func(finishedMission) bool) []model.LocalResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.LocalResult, 0, len(r.items))
	r.eachLocked(func(f finishedMission) {
		if keep == nil || keep(f) {
			out = append(out, f.result)
		}
	})
	return out
}

// Snapshot returns the final snapshot of missionID.
func (r *recentResults) Snapshot(missionID string) (finishedMission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found finishedMission
	var ok bool
	r.eachLocked(func(f finishedMission) {
		if f.snapshot.MissionID == missionID {
			found, ok = f, true
		}
	})
	return found, ok
}

func (r *recentResults) eachLocked(fn func(finishedMission)) {
	if r.full {
		for _, f := range r.items[r.next:] {
			fn(f)
		}
	}
	for _, f := range r.items[:r.next] {
		fn(f)
	}
}
