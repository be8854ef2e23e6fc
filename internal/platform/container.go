package platform

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"swupdate/internal/updater"
)

// Container holds the page-level worker state: the current controller and
// the registrations keyed by script URL.
type Container struct {
	log        zerolog.Logger
	claimFirst bool

	mu         sync.Mutex
	controller *Worker
	regs       map[string]*Registration

	onControllerChange handlers[func()]
}

var _ updater.Container = (*Container)(nil)

// Option customizes a Container.
type Option func(*Container)

// WithLogger installs a structured logger. Default is zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithClaimOnFirstInstall makes a first-install worker take control of the
// page as soon as it activates.
func WithClaimOnFirstInstall(v bool) Option {
	return func(c *Container) { c.claimFirst = v }
}

func NewContainer(opts ...Option) *Container {
	c := &Container{
		log:  zerolog.Nop(),
		regs: make(map[string]*Registration),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register returns the registration for scriptURL, creating it on first use.
func (c *Container) Register(ctx context.Context, scriptURL string) (*Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(scriptURL) == "" {
		return nil, ErrEmptyScriptURL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.regs[scriptURL]; ok {
		return r, nil
	}
	r := &Registration{container: c, scriptURL: scriptURL}
	c.regs[scriptURL] = r
	return r, nil
}

// Source returns an updater.Source that registers scriptURL when resolved.
func (c *Container) Source(scriptURL string) updater.Source {
	return updater.SourceFunc(func(ctx context.Context) (updater.Registration, error) {
		r, err := c.Register(ctx, scriptURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Bootstrap registers scriptURL, installs and activates a worker for digest
// and gives it control of the page: the state of a page loaded under an
// existing worker.
func (c *Container) Bootstrap(ctx context.Context, scriptURL, digest string) (*Registration, *Worker, error) {
	r, err := c.Register(ctx, scriptURL)
	if err != nil {
		return nil, nil, err
	}
	w := r.Install(digest)
	if err := w.FinishInstall(); err != nil {
		return nil, nil, err
	}
	if !c.claimFirst {
		c.setController(w)
	}
	return r, w, nil
}

func (c *Container) Controller() updater.Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return asWorker(c.controller)
}

func (c *Container) OnControllerChange(fn func()) updater.Subscription {
	return c.onControllerChange.add(fn)
}

// FireControllerChange delivers the controller-change notification again
// without changing the controller, as some platforms do after a transfer.
func (c *Container) FireControllerChange() {
	for _, fn := range c.onControllerChange.snapshot() {
		fn()
	}
}

// ControllerChangeListeners reports how many listeners are attached.
func (c *Container) ControllerChangeListeners() int {
	return c.onControllerChange.count()
}

func (c *Container) setController(w *Worker) {
	c.mu.Lock()
	if c.controller == w {
		c.mu.Unlock()
		return
	}
	c.controller = w
	c.mu.Unlock()
	c.log.Debug().Str("worker_id", w.id).Msg("controller changed")
	c.FireControllerChange()
}
