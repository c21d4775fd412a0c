package session

import (
	"time"

	"github.com/okian/heartrobot/pkg/logger"
)

// Option configures a Machine.
type Option func(*Machine)

// WithSettleDelay sets the pause between a correct answer and the next puzzle.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.settle = d
		}
	}
}

// WithPlayer sets who is playing. The zero Player is anonymous.
func WithPlayer(p Player) Option {
	return func(m *Machine) {
		m.player = p
	}
}

// WithMissionID sets the mission id instead of generating one.
func WithMissionID(id string) Option {
	return func(m *Machine) {
		if id != "" {
			m.id = id
		}
	}
}

// WithOnFinish registers the callback run once after termination, when the
// summary has been handed off and the score submitted.
func WithOnFinish(fn func(Snapshot)) Option {
	return func(m *Machine) {
		m.onFinish = fn
	}
}

// WithLogger sets the mission logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNow replaces the wall clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}
