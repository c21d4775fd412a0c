package repository

import (
	"time"

	"github.com/okian/heartrobot/pkg/logger"
)

// Option configures a Store.
type Option func(*settings)

type settings struct {
	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// WithNow replaces the clock used to stamp CreatedAt.
func WithNow(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *settings) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
