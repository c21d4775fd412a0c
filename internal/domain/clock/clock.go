// Package clock implements the per-round mission countdown.
package clock

import (
	"sync"
	"time"
)

const defaultTickInterval = time.Second

// Countdown counts whole seconds down to zero. onTick receives the remaining
// seconds after every decrement; onExpire fires once when zero is reached.
// Both callbacks run on the countdown goroutine without the internal lock held,
// so they may call back into the Countdown.
type Countdown struct {
	mu        sync.Mutex
	interval  time.Duration
	remaining int
	running   bool
	cancelled bool
	gen       uint64
	stop      chan struct{}

	onTick   func(remaining int)
	onExpire func()
}

// New creates a stopped countdown.
func New(onTick func(remaining int), onExpire func(), opts ...Option) *Countdown {
	c := &Countdown{
		interval: defaultTickInterval,
		onTick:   onTick,
		onExpire: onExpire,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start (re)arms the countdown at seconds and begins ticking. A running loop
// is replaced. Start after Cancel is ignored.
func (c *Countdown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.haltLocked()
	c.remaining = seconds
	if seconds <= 0 {
		c.remaining = 0
		return
	}
	c.runLocked()
}

// Pause stops ticking and keeps the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.haltLocked()
}

// Resume continues a paused countdown.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled || c.running || c.remaining <= 0 {
		return
	}
	c.runLocked()
}

// Cancel stops the countdown for good. No new tick is scheduled afterwards.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
	c.haltLocked()
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) haltLocked() {
	if !c.running {
		return
	}
	c.running = false
	c.gen++
	close(c.stop)
}

func (c *Countdown) runLocked() {
	c.running = true
	c.gen++
	c.stop = make(chan struct{})
	go c.loop(c.gen, c.stop)
}

func (c *Countdown) loop(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.gen != gen || !c.running {
			c.mu.Unlock()
			return
		}
		c.remaining--
		remaining := c.remaining
		expired := remaining <= 0
		if expired {
			c.remaining = 0
			c.running = false
			c.gen++
		}
		c.mu.Unlock()

		if c.onTick != nil {
			c.onTick(remaining)
		}
		if expired {
			if c.onExpire != nil {
				c.onExpire()
			}
			return
		}
	}
}
