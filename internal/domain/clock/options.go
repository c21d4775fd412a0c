package clock

import "time"

// Option configures a Countdown.
type Option func(*Countdown)

// WithTickInterval sets how often one second is removed. Tests use a short
// interval to run a countdown quickly.
func WithTickInterval(d time.Duration) Option {
	return func(c *Countdown) {
		if d > 0 {
			c.interval = d
		}
	}
}
