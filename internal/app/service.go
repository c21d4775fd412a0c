// Package service wires the mission machines, the scoreboard, identity and
// the score submission pipeline behind one API used by the HTTP layer.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/heartrobot/internal/adapters/identity"
	"github.com/okian/heartrobot/internal/adapters/kv"
	eventqueue "github.com/okian/heartrobot/internal/adapters/mq/queue"
	workerpool "github.com/okian/heartrobot/internal/adapters/mq/worker"
	"github.com/okian/heartrobot/internal/adapters/puzzle"
	"github.com/okian/heartrobot/internal/adapters/repository"
	"github.com/okian/heartrobot/internal/config"
	"github.com/okian/heartrobot/internal/domain/clock"
	"github.com/okian/heartrobot/internal/domain/dedupe"
	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
	"github.com/okian/heartrobot/pkg/metrics"
)

// Service implements the API dependencies of the mission server.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	live        puzzle.Provider
	secrets     *kv.SecretStore
	puzzles     *puzzle.Client
	handoffs    *kv.HandoffRegistry
	preferences *kv.PreferenceStore
	identity    identity.Provider
	store       repository.Store
	deduper     dedupe.Deduper
	queue       *eventqueue.InMemoryQueue
	workers     *workerpool.Pool
	clocks      session.ClockFactory

	missions map[string]*session.Machine
	recent   *recentResults

	// State
	started     bool
	ownsStore   bool
	unsubscribe func()

	now    func() time.Time
	logger logger.Logger
}

// New builds a Service from cfg. Start must be called before scores can
// be stored or read.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:         cfg,
		handoffs:    kv.NewHandoffRegistry(),
		preferences: kv.NewPreferenceStore(),
		missions:    make(map[string]*session.Machine),
		recent:      newRecentResults(cfg.Scoreboard.RecentCapacity),
		now:         time.Now,
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.identity == nil {
		idp, err := identity.NewMemoryProvider([]byte(cfg.Auth.JWTSecret),
			identity.WithTokenTTL(cfg.TokenTTL()),
			identity.WithBcryptCost(cfg.Auth.BcryptCost),
			identity.WithLogger(s.logger.Named("identity")),
		)
		if err != nil {
			return nil, fmt.Errorf("identity: %w", err)
		}
		s.identity = idp
	}
	s.unsubscribe = s.identity.OnChange(s.onIdentityChange)

	if s.live == nil {
		s.live = puzzle.NewHTTPProvider(cfg.Puzzle.URL)
	}
	s.secrets = kv.NewSecretStore(kv.WithCapacity(cfg.Puzzle.SecretCapacity))
	clientOpts := []puzzle.Option{
		puzzle.WithTimeout(cfg.PuzzleTimeout()),
		puzzle.WithLogger(s.logger.Named("puzzle")),
	}
	if cfg.Puzzle.FallbackEnabled {
		bank, err := fallbackBank(cfg.Puzzle.FallbackBank)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, puzzle.WithFallback(bank))
	}
	s.puzzles = puzzle.NewClient(s.live, s.secrets, clientOpts...)

	if s.clocks == nil {
		tick := cfg.TickInterval()
		s.clocks = func(onTick func(int), onExpire func()) session.Clock {
			return clock.New(onTick, onExpire, clock.WithTickInterval(tick))
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.Submission.DedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(cfg.Submission.QueueSize))
	return s, nil
}

func fallbackBank(entries []config.BankPuzzle) (*puzzle.BankProvider, error) {
	payloads := make([]puzzle.Payload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, puzzle.Payload{Question: e.Image, Solution: e.Hearts, Carrots: e.Carrots})
	}
	bank, err := puzzle.NewBankProvider(payloads)
	if err != nil {
		return nil, fmt.Errorf("fallback bank: %w", err)
	}
	return bank, nil
}

// Start opens the score store and starts the submission workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting mission service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.cfg.Store.Backend, s.cfg.Store.DSN,
			repository.WithLogger(s.logger.Named("store")))
		if err != nil {
			return fmt.Errorf("open score store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	s.workers = workerpool.NewPool(s.cfg.Submission.WorkerCount, s.queue, s.store,
		workerpool.WithDeduper(s.deduper),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	// Workers outlive the caller's context so Stop can drain the backlog.
	s.workers.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "mission service started",
		logger.String("store", s.cfg.Store.Backend),
		logger.Int("workers", s.workers.Size()),
		logger.Int("queueSize", s.cfg.Submission.QueueSize),
		logger.Int("dedupeSize", s.cfg.Submission.DedupeSize),
	)
	return nil
}

// Stop abandons running missions, drains queued submissions and closes the
// store it opened.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	machines := make([]*session.Machine, 0, len(s.missions))
	for id, m := range s.missions {
		machines = append(machines, m)
		delete(s.missions, id)
	}
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping mission service...", logger.Int("abandoned", len(machines)))
	for _, m := range machines {
		m.Abandon()
	}
	metrics.UpdateActiveMissions(0)

	if err := s.workers.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "submission workers did not drain", logger.Error(err))
	}
	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing score store", logger.Error(err))
		}
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.logger.Info(ctx, "mission service stopped")
}

// Identity returns the identity provider.
func (s *Service) Identity() identity.Provider {
	return s.identity
}

// Submit queues a final score for persistence. A mission already queued
// is ignored. It implements session.Submitter.
func (s *Service) Submit(ctx context.Context, rec eventqueue.Submission) error {
	if rec.MissionID != "" && s.deduper.SeenAndRecord(ctx, rec.MissionID) {
		metrics.RecordScoreSubmission("duplicate")
		s.logger.Debug(ctx, "duplicate score submission skipped", logger.String("mission", rec.MissionID))
		return nil
	}
	if err := s.queue.Enqueue(ctx, rec); err != nil {
		if rec.MissionID != "" {
			s.deduper.Unrecord(ctx, rec.MissionID)
		}
		return fmt.Errorf("%w: %w", ErrScoreSubmission, err)
	}
	metrics.RecordScoreSubmission("queued")
	return nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"active_missions":  len(s.missions),
		"recent_results":   s.recent.Len(),
		"pending_handoffs": s.handoffs.Len(),
		"pending_puzzles":  s.secrets.Len(),
		"queue_length":     s.queue.Len(ctx),
		"dedupe_size":      s.deduper.Size(),
		"store_backend":    s.cfg.Store.Backend,
	}
	if s.workers != nil {
		stats["workers"] = s.workers.Size()
	}
	return stats
}
