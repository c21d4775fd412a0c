package service

import (
	"time"

	"github.com/okian/heartrobot/internal/adapters/identity"
	"github.com/okian/heartrobot/internal/adapters/puzzle"
	"github.com/okian/heartrobot/internal/adapters/repository"
	"github.com/okian/heartrobot/internal/domain/session"
	"github.com/okian/heartrobot/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPuzzleProvider replaces the HTTP puzzle provider built from config.
func WithPuzzleProvider(p puzzle.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.live = p
		}
	}
}

// WithStore uses store instead of opening the configured backend on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithIdentity replaces the in-memory identity provider.
func WithIdentity(p identity.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.identity = p
		}
	}
}

// WithClockFactory replaces the countdown used by missions.
func WithClockFactory(f session.ClockFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.clocks = f
		}
	}
}

// WithNow overrides the wall clock.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
