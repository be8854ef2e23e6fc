package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrClosed is returned by CheckForUpdates after Close.
var ErrClosed = errors.New("updater: coordinator closed")

// Coordinator watches a worker registration for a newly installed version,
// notifies subscribers once it is ready and drives activation and reload.
type Coordinator struct {
	src            Source
	container      Container
	reloader       Reloader
	reloadOnUpdate bool
	log            zerolog.Logger
	pub            EventPublisher
	now            func() time.Time
	started        time.Time

	// immutable after New; each list has its own lock
	listeners map[string]*subscriberList

	mu              sync.Mutex
	phase           Phase
	reg             Registration
	updateAvailable bool
	reloadGuard     bool
	detections      int
	closed          bool
	attached        []Subscription
}

// New builds a coordinator for the registration yielded by src. It returns a
// ConfigurationError when src or env.Container is missing.
func New(src Source, env Env, opts ...Option) (*Coordinator, error) {
	if src == nil {
		return nil, ConfigurationError{Reason: "registration handle required"}
	}
	if rs, ok := src.(resolvedSource); ok && rs.reg == nil {
		return nil, ConfigurationError{Reason: "registration handle required"}
	}
	if f, ok := src.(SourceFunc); ok && f == nil {
		return nil, ConfigurationError{Reason: "registration handle required"}
	}
	if env.Container == nil {
		return nil, ConfigurationError{Reason: "worker container required"}
	}
	c := &Coordinator{
		src:            src,
		container:      env.Container,
		reloader:       env.Reloader,
		reloadOnUpdate: true,
		log:            zerolog.Nop(),
		pub:            noopPublisher{},
		now:            time.Now,
		phase:          PhaseAwaitingRegistration,
		listeners: map[string]*subscriberList{
			EventUpdateAvailable: {},
			EventUpdate:          {},
		},
	}
	if f, ok := c.reloader.(ReloaderFunc); c.reloader == nil || (ok && f == nil) {
		c.reloader = noopReloader{}
	}
	for _, opt := range opts {
		opt(c)
	}
	c.started = c.now()
	return c, nil
}

// CheckForUpdates waits for the registration and starts watching it. Once a
// registration has been handled, later calls return it without attaching
// listeners again.
func (c *Coordinator) CheckForUpdates(ctx context.Context) (Registration, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.reg != nil {
		reg := c.reg
		c.mu.Unlock()
		return reg, nil
	}
	c.mu.Unlock()

	reg, err := c.src.Register(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve registration: %w", err)
	}
	if reg == nil {
		return nil, ConfigurationError{Reason: "registration handle required"}
	}
	return c.onRegistered(reg), nil
}

// onRegistered stores reg and, if the page is already controlled, starts
// watching for a new candidate. It returns the registration actually in use.
func (c *Coordinator) onRegistered(reg Registration) Registration {
	c.mu.Lock()
	if c.reg != nil {
		// lost a race with a concurrent CheckForUpdates
		existing := c.reg
		c.mu.Unlock()
		return existing
	}
	c.reg = reg
	c.mu.Unlock()
	c.pub.Publish(Event{Name: EvRegistered, WorkerID: workerID(reg.Active())})

	controller := c.container.Controller()
	if controller == nil {
		// Not controlled yet: the new worker activates on its own and there
		// is nothing to offer as an update.
		c.setPhase(PhaseFreshInstall)
		c.log.Info().Msg("fresh install; no update watch")
		c.pub.Publish(Event{Name: EvFreshInstall})
		return reg
	}

	c.setPhase(PhaseControlled)
	c.log.Info().Str("controller", controller.ID()).Msg("page controlled; watching for updates")
	c.pub.Publish(Event{Name: EvControlled, WorkerID: controller.ID()})

	c.track(c.container.OnControllerChange(c.onControllerChange))
	c.watchForCandidate(c.onCandidateInstalled)
	return reg
}

func (c *Coordinator) onControllerChange() {
	c.mu.Lock()
	if c.reloadGuard {
		c.mu.Unlock()
		c.log.Debug().Msg("duplicate controller change ignored")
		return
	}
	c.reloadGuard = true
	c.phase = PhaseReloaded
	reload := c.reloadOnUpdate
	c.mu.Unlock()

	id := workerID(c.container.Controller())
	c.log.Info().Str("controller", id).Bool("reload", reload).Msg("controller changed")
	c.pub.Publish(Event{Name: EvControllerChange, WorkerID: id})
	c.emit(EventUpdate)
	if reload {
		c.pub.Publish(Event{Name: EvReload, WorkerID: id})
		c.reloader.Reload()
	}
}

func (c *Coordinator) onCandidateInstalled(w Worker) {
	c.mu.Lock()
	c.updateAvailable = true
	c.detections++
	if c.phase == PhaseControlled {
		c.phase = PhaseUpdateDetected
	}
	c.mu.Unlock()

	id := workerID(w)
	c.log.Info().Str("worker_id", id).Msg("update available")
	c.pub.Publish(Event{Name: EvUpdateAvailable, WorkerID: id})
	c.emit(EventUpdateAvailable)
}

// On registers fn for event (EventUpdateAvailable or EventUpdate). Callbacks
// run in registration order; the returned Subscription removes fn.
func (c *Coordinator) On(event string, fn func()) (Subscription, error) {
	if fn == nil {
		return nil, ConfigurationError{Reason: "callback required"}
	}
	list, ok := c.listeners[event]
	if !ok {
		return nil, ConfigurationError{Reason: fmt.Sprintf("unknown event %q", event)}
	}
	return list.add(fn), nil
}

// Update asks the waiting worker to activate. It reports whether the
// activation message was posted. No update detected yet, or an empty waiting
// slot, are not errors: Update simply does nothing.
func (c *Coordinator) Update() (bool, error) {
	c.mu.Lock()
	available, reg, closed := c.updateAvailable, c.reg, c.closed
	c.mu.Unlock()
	if closed || !available || reg == nil {
		c.skip("no_update")
		return false, nil
	}
	waiting := reg.Waiting()
	if waiting == nil {
		c.skip("no_waiting_worker")
		return false, nil
	}

	// Phase moves first: posting may synchronously complete the transfer.
	c.mu.Lock()
	if c.phase == PhaseUpdateDetected {
		c.phase = PhaseActivating
	}
	c.mu.Unlock()

	if err := waiting.PostMessage(ActivationMessage); err != nil {
		c.mu.Lock()
		if c.phase == PhaseActivating {
			c.phase = PhaseUpdateDetected
		}
		c.mu.Unlock()
		c.log.Error().Err(err).Str("worker_id", waiting.ID()).Msg("activation message failed")
		return false, postError{workerID: waiting.ID(), err: err}
	}
	c.log.Info().Str("worker_id", waiting.ID()).Msg("activation message sent")
	c.pub.Publish(Event{Name: EvActivationSent, WorkerID: waiting.ID()})
	return true, nil
}

func (c *Coordinator) skip(reason string) {
	c.log.Debug().Str("reason", reason).Msg("update skipped")
	c.pub.Publish(Event{Name: EvUpdateSkipped, Fields: map[string]any{"reason": reason}})
}

// Close detaches every platform listener the coordinator attached. It is
// idempotent. Subscribers stay registered but receive nothing further.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	attached := c.attached
	c.attached = nil
	c.mu.Unlock()
	for _, s := range attached {
		s.Unsubscribe()
	}
	return nil
}

// track keeps sub for Close. After Close, new attachments are dropped at once.
func (c *Coordinator) track(sub Subscription) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	c.attached = append(c.attached, sub)
	c.mu.Unlock()
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

func (c *Coordinator) registration() Registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg
}

func workerID(w Worker) string {
	if w == nil {
		return ""
	}
	return w.ID()
}
