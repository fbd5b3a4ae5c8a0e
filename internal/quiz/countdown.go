package quiz

import (
	"sync"
	"time"
)

// Countdown drives the one-second tick stream of a session. It is either
// stopped or running; starting a running countdown first cancels the old
// stream so two tick streams never drive the same state. Stop is idempotent.
type Countdown struct {
	interval time.Duration
	mu       sync.Mutex
	cancel   chan struct{}
}

// NewCountdown returns a stopped countdown with one-second granularity.
func NewCountdown() *Countdown {
	return NewCountdownWithInterval(time.Second)
}

// NewCountdownWithInterval is for tests that cannot wait on wall-clock
// seconds.
func NewCountdownWithInterval(interval time.Duration) *Countdown {
	return &Countdown{interval: interval}
}

// Start transitions to running. tick is invoked synchronously once with
// first=true so the current remaining time is emitted immediately, then once
// per interval with first=false. A false return from tick stops the
// countdown. tick is never invoked concurrently with itself.
func (c *Countdown) Start(tick func(first bool) bool) {
	c.Stop()

	c.mu.Lock()
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	tick(true)

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				if !tick(false) {
					c.stopIf(cancel)
					return
				}
			}
		}
	}()
}

// Stop cancels future ticks. Safe to call at any time, any number of times.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

// stopIf releases only the stream identified by cancel, so a tick goroutine
// winding down cannot cancel a newer stream started in the meantime.
func (c *Countdown) stopIf(cancel chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == cancel {
		close(c.cancel)
		c.cancel = nil
	}
}

// Running reports whether a tick stream is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}
