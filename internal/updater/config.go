package updater

import (
	"time"

	"github.com/rs/zerolog"
)

// Env carries the platform capabilities the coordinator needs besides the
// registration itself.
type Env struct {
	Container Container
	// Reloader defaults to a no-op when nil.
	Reloader Reloader
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithReloadOnUpdate controls whether control transfer triggers the reload
// action. Subscribers of EventUpdate are notified either way. Default true.
func WithReloadOnUpdate(v bool) Option {
	return func(c *Coordinator) { c.reloadOnUpdate = v }
}

// WithLogger installs a structured logger. Default is zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithEventPublisher installs an event sink. nil restores the no-op default.
func WithEventPublisher(p EventPublisher) Option {
	return func(c *Coordinator) {
		if p == nil {
			p = noopPublisher{}
		}
		c.pub = p
	}
}

// WithClock overrides time.Now, used for uptime reporting.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

type noopReloader struct{}

func (noopReloader) Reload() {}
