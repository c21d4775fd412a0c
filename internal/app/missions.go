package service

import (
	"context"
	"fmt"

	"github.com/okian/heartrobot/internal/adapters/identity"
	"github.com/okian/heartrobot/internal/domain/difficulty"
	"github.com/okian/heartrobot/internal/domain/leaderboard"
	"github.com/okian/heartrobot/internal/domain/model"
	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

// Player is the caller of a mission operation. The zero Player is anonymous.
type Player = session.Player

func displayName(p Player) string {
	if p.Name == "" {
		return leaderboard.AnonymousName
	}
	return p.Name
}

// StartMission creates a mission at level and fetches its first puzzle. An
// empty level uses the player's stored preference. A failed first fetch
// still returns the mission, in Loading with an error message, so the
// player can retry.
func (s *Service) StartMission(ctx context.Context, p Player, level string) (session.Snapshot, error) {
	if level == "" {
		level = string(s.preferences.Level(ctx, p.ID))
	}
	profile := difficulty.Resolve(level)
	p.Name = displayName(p)

	m := session.New(profile, session.Deps{
		Puzzles:   s.puzzles,
		Handoff:   s.handoffs.Slot(p.ID),
		Submitter: s,
		Clock:     s.clocks,
	},
		session.WithPlayer(p),
		session.WithSettleDelay(s.cfg.SettleDelay()),
		session.WithLogger(s.logger.Named("mission")),
		session.WithNow(s.now),
		session.WithOnFinish(s.onMissionFinished),
	)

	s.mu.Lock()
	s.missions[m.ID()] = m
	active := len(s.missions)
	s.mu.Unlock()
	metrics.UpdateActiveMissions(active)

	s.logger.Info(ctx, "mission started",
		logger.String("mission", m.ID()),
		logger.String("player", p.Name),
		logger.String("difficulty", string(profile.Name)),
	)

	if err := m.Start(ctx); err != nil {
		s.logger.Warn(ctx, "first puzzle not loaded", logger.String("mission", m.ID()), logger.Error(err))
	}
	return m.Snapshot(), nil
}

func (s *Service) onMissionFinished(snap session.Snapshot) {
	s.mu.RLock()
	m, ok := s.missions[snap.MissionID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	player := m.Player()
	s.recent.Add(finishedMission{
		userID: player.ID,
		result: model.LocalResult{
			MissionID:       snap.MissionID,
			Name:            player.Name,
			Level:           snap.Run.Level.Name,
			Score:           snap.Run.TotalScore,
			Attempts:        snap.Run.PuzzlesCleared,
			TimestampMillis: s.now().UnixMilli(),
		},
		snapshot: snap,
	})

	s.mu.Lock()
	delete(s.missions, snap.MissionID)
	active := len(s.missions)
	s.mu.Unlock()
	metrics.UpdateActiveMissions(active)
}

// machine returns the running mission id owned by p.
func (s *Service) machine(p Player, id string) (*session.Machine, error) {
	s.mu.RLock()
	m, ok := s.missions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissionNotFound, id)
	}
	if owner := m.Player().ID; owner != "" && owner != p.ID {
		return nil, ErrNotYourMission
	}
	return m, nil
}

// Mission returns the current snapshot of a running or recently finished mission.
func (s *Service) Mission(_ context.Context, p Player, id string) (session.Snapshot, error) {
	m, err := s.machine(p, id)
	if err == nil {
		return m.Snapshot(), nil
	}
	f, ok := s.recent.Snapshot(id)
	if !ok {
		return session.Snapshot{}, err
	}
	if f.userID != "" && f.userID != p.ID {
		return session.Snapshot{}, ErrNotYourMission
	}
	return f.snapshot, nil
}

// Guess submits raw heart and carrot counts.
func (s *Service) Guess(ctx context.Context, p Player, id, hearts, carrots string) (session.GuessOutcome, error) {
	m, err := s.machine(p, id)
	if err != nil {
		return session.GuessOutcome{}, err
	}
	return m.Guess(ctx, hearts, carrots)
}

// Retry asks for a puzzle again after a failed fetch.
func (s *Service) Retry(ctx context.Context, p Player, id string) (session.Snapshot, error) {
	m, err := s.machine(p, id)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := m.Retry(ctx); err != nil {
		return m.Snapshot(), err
	}
	return m.Snapshot(), nil
}

// Subscribe streams snapshots of a running mission until it ends.
func (s *Service) Subscribe(_ context.Context, p Player, id string) (<-chan session.Snapshot, func(), error) {
	m, err := s.machine(p, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := m.Subscribe()
	return ch, cancel, nil
}

// Abandon ends a mission without recording a result.
func (s *Service) Abandon(ctx context.Context, p Player, id string) error {
	m, err := s.machine(p, id)
	if err != nil {
		return err
	}
	s.drop(m)
	s.logger.Info(ctx, "mission abandoned", logger.String("mission", id))
	return nil
}

func (s *Service) drop(m *session.Machine) {
	s.mu.Lock()
	delete(s.missions, m.ID())
	active := len(s.missions)
	s.mu.Unlock()
	m.Abandon()
	metrics.UpdateActiveMissions(active)
}

// onIdentityChange abandons the missions of a player who signs out.
func (s *Service) onIdentityChange(c identity.Change) {
	if c.Kind != identity.SignedOut || c.User.ID == "" {
		return
	}
	s.mu.RLock()
	var owned []*session.Machine
	for _, m := range s.missions {
		if m.Player().ID == c.User.ID {
			owned = append(owned, m)
		}
	}
	s.mu.RUnlock()
	for _, m := range owned {
		s.drop(m)
	}
	if len(owned) > 0 {
		s.logger.Info(context.Background(), "missions abandoned on sign-out",
			logger.String("user_id", c.User.ID),
			logger.Int("count", len(owned)),
		)
	}
}

// SetLevel stores the player's preferred difficulty.
func (s *Service) SetLevel(ctx context.Context, p Player, level string) model.DifficultyProfile {
	return difficulty.Resolve(string(s.preferences.SetLevel(ctx, p.ID, level)))
}

// Level returns the player's preferred difficulty.
func (s *Service) Level(ctx context.Context, p Player) model.DifficultyProfile {
	return difficulty.Resolve(string(s.preferences.Level(ctx, p.ID)))
}
