// Package circuit holds the process-wide operating mode and the gates that
// short-circuit backend calls while the pipeline runs offline.
//
// Unlike a counting breaker there is no half-open state: a single observed
// connectivity failure flips the pipeline to Demo, and only a successful
// health probe (or an explicit ForceMode) brings it back to Live.
package circuit

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mode is the operating mode of the pipeline.
type Mode int

const (
	// Live means backend calls are attempted.
	Live Mode = iota
	// Demo means every backend call is skipped and safe defaults are served.
	Demo
)

func (m Mode) String() string {
	switch m {
	case Live:
		return "live"
	case Demo:
		return "demo"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "live" or "demo", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live":
		return Live, nil
	case "demo":
		return Demo, nil
	default:
		return Live, fmt.Errorf("unknown mode %q", s)
	}
}

// Transition describes one mode change.
type Transition struct {
	From   Mode
	To     Mode
	Reason string
	At     time.Time
}

// Observer is notified after every transition, outside the controller lock.
type Observer func(Transition)

// Controller owns the operating mode. It is injected into every consumer;
// there is no package-level instance.
type Controller struct {
	mu        sync.RWMutex
	mode      Mode
	changedAt time.Time
	reason    string
	observers []Observer
	now       func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitialMode starts the controller in m instead of Live.
func WithInitialMode(m Mode) Option {
	return func(c *Controller) {
		c.mode = m
	}
}

// WithObserver registers an observer for transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController returns a controller in Live mode unless configured otherwise.
func NewController(opts ...Option) *Controller {
	c := &Controller{mode: Live, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.changedAt = c.now()
	return c
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// IsDemo reports whether backend calls must be skipped.
func (c *Controller) IsDemo() bool {
	return c.Mode() == Demo
}

// Status returns the current mode with the reason and time of the last change.
func (c *Controller) Status() (Mode, string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode, c.reason, c.changedAt
}

// ForceMode sets the mode explicitly. Used by the developer bypass and the
// CLI; it is not part of the automatic failure path.
func (c *Controller) ForceMode(m Mode, reason string) {
	c.set(m, reason)
}

// Degrade switches to Demo after a consumer observed a connectivity or
// authentication failure. Repeated calls are no-ops.
func (c *Controller) Degrade(reason string) {
	c.set(Demo, reason)
}

// Recover switches back to Live. Only the health monitor calls this.
func (c *Controller) Recover() {
	c.set(Live, "health probe succeeded")
}

// set applies last-writer-wins semantics and notifies observers on change.
func (c *Controller) set(m Mode, reason string) {
	c.mu.Lock()
	if c.mode == m {
		c.mu.Unlock()
		return
	}
	t := Transition{From: c.mode, To: m, Reason: reason, At: c.now()}
	c.mode = m
	c.reason = reason
	c.changedAt = t.At
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, o := range observers {
		o(t)
	}
}

// Observe registers an observer after construction.
func (c *Controller) Observe(o Observer) {
	if o == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}
