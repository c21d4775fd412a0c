package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/heartrobot/internal/domain/leaderboard"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

// Scoreboard filters.
const (
	FilterAll  = "all"
	FilterMine = "mine"
)

// Scoreboard aggregates stored and recent results into ranked standings.
// Reading it consumes the player's pending result handoff, whose summary is
// merged into this aggregation only.
func (s *Service) Scoreboard(ctx context.Context, p Player, filter string) ([]model.AggregatedScoreRow, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoreboardLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	started, store := s.started, s.store
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	limits := s.cfg.Scoreboard
	var (
		persisted []model.ScoreRecord
		local     []model.LocalResult
		err       error
		show      int
	)
	switch filter {
	case "", FilterAll:
		persisted, err = store.TopN(ctx, limits.TopLimit)
		local = s.recent.Results(nil)
		show = limits.TopLimit
	case FilterMine:
		if p.ID == "" {
			return nil, ErrSignInRequired
		}
		persisted, err = store.ByUser(ctx, p.ID, limits.UserFetchLimit)
		local = s.recent.Results(func(f finishedMission) bool { return f.userID == p.ID })
		show = limits.UserLimit
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	in := leaderboard.Input{
		Persisted:     persisted,
		Local:         local,
		CurrentPlayer: displayName(p),
		Now:           s.now(),
		Location:      s.cfg.Location(),
	}
	if summary, ok := s.handoffs.Slot(p.ID).ReadAndClear(ctx); ok {
		in.Current = &summary
		s.logger.Debug(ctx, "merging handed-off result", logger.String("mission", summary.MissionID))
	}

	rows := leaderboard.Aggregate(in)
	if show > 0 && len(rows) > show {
		rows = rows[:show]
	}
	return rows, nil
}
