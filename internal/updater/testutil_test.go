package updater

import (
	"context"
	"sync"
)

// fakeWorker is a lightweight in-memory worker used for tests.
type fakeWorker struct {
	id string

	mu       sync.Mutex
	state    WorkerState
	handlers map[int]func(WorkerState)
	nextID   int
	posted   []Message
	postErr  error
	onPost   func(Message)
	// onWatch runs before a state listener is attached.
	onWatch func()
}

func newFakeWorker(id string, state WorkerState) *fakeWorker {
	return &fakeWorker{id: id, state: state, handlers: map[int]func(WorkerState){}}
}

func (w *fakeWorker) ID() string { return w.id }

func (w *fakeWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *fakeWorker) OnStateChange(fn func(WorkerState)) Subscription {
	if hook := w.onWatch; hook != nil {
		w.onWatch = nil
		hook()
	}
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = fn
	w.mu.Unlock()
	return SubscriptionFunc(func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	})
}

func (w *fakeWorker) PostMessage(msg Message) error {
	w.mu.Lock()
	if w.postErr != nil {
		err := w.postErr
		w.mu.Unlock()
		return err
	}
	w.posted = append(w.posted, msg)
	hook := w.onPost
	w.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
	return nil
}

func (w *fakeWorker) messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Message(nil), w.posted...)
}

func (w *fakeWorker) listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handlers)
}

// setState moves the worker and notifies listeners in attach order.
func (w *fakeWorker) setState(s WorkerState) {
	w.mu.Lock()
	w.state = s
	fns := make([]func(WorkerState), 0, len(w.handlers))
	for i := 0; i < w.nextID; i++ {
		if fn, ok := w.handlers[i]; ok {
			fns = append(fns, fn)
		}
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

type fakeRegistration struct {
	mu          sync.Mutex
	active      *fakeWorker
	installing  *fakeWorker
	waiting     *fakeWorker
	updateFound map[int]func()
	nextID      int
}

func newFakeRegistration() *fakeRegistration {
	return &fakeRegistration{updateFound: map[int]func(){}}
}

func (r *fakeRegistration) slot(w *fakeWorker) Worker {
	if w == nil {
		return nil
	}
	return w
}

func (r *fakeRegistration) Active() Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot(r.active)
}

func (r *fakeRegistration) Installing() Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot(r.installing)
}

func (r *fakeRegistration) Waiting() Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot(r.waiting)
}

func (r *fakeRegistration) OnUpdateFound(fn func()) Subscription {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.updateFound[id] = fn
	r.mu.Unlock()
	return SubscriptionFunc(func() {
		r.mu.Lock()
		delete(r.updateFound, id)
		r.mu.Unlock()
	})
}

func (r *fakeRegistration) listeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updateFound)
}

// startInstall puts w in the installing slot and fires update found.
func (r *fakeRegistration) startInstall(w *fakeWorker) {
	r.mu.Lock()
	r.installing = w
	fns := make([]func(), 0, len(r.updateFound))
	for i := 0; i < r.nextID; i++ {
		if fn, ok := r.updateFound[i]; ok {
			fns = append(fns, fn)
		}
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// finishInstall moves the installing worker to waiting and marks it installed.
func (r *fakeRegistration) finishInstall() *fakeWorker {
	r.mu.Lock()
	w := r.installing
	r.installing = nil
	r.waiting = w
	r.mu.Unlock()
	w.setState(WorkerInstalled)
	return w
}

func (r *fakeRegistration) clearWaiting() {
	r.mu.Lock()
	r.waiting = nil
	r.mu.Unlock()
}

type fakeContainer struct {
	mu         sync.Mutex
	controller *fakeWorker
	handlers   map[int]func()
	nextID     int
}

func newFakeContainer(controller *fakeWorker) *fakeContainer {
	return &fakeContainer{controller: controller, handlers: map[int]func(){}}
}

func (c *fakeContainer) Controller() Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return nil
	}
	return c.controller
}

func (c *fakeContainer) OnControllerChange(fn func()) Subscription {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = fn
	c.mu.Unlock()
	return SubscriptionFunc(func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	})
}

func (c *fakeContainer) listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// transfer switches the controller to w (nil keeps it) and fires the event.
func (c *fakeContainer) transfer(w *fakeWorker) {
	c.mu.Lock()
	if w != nil {
		c.controller = w
	}
	fns := make([]func(), 0, len(c.handlers))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.handlers[i]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type countingReloader struct {
	mu sync.Mutex
	n  int
}

func (r *countingReloader) Reload() {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *countingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// counter counts callback invocations.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// fixture bundles a coordinator with its fakes.
type fixture struct {
	coord     *Coordinator
	reg       *fakeRegistration
	container *fakeContainer
	reloader  *countingReloader
	pub       *MemoryPublisher
	available *counter
	updated   *counter
}

func newFixture(controller *fakeWorker, reg *fakeRegistration, opts ...Option) (*fixture, error) {
	f := &fixture{
		reg:       reg,
		container: newFakeContainer(controller),
		reloader:  &countingReloader{},
		pub:       NewMemoryPublisher(),
		available: &counter{},
		updated:   &counter{},
	}
	opts = append([]Option{WithEventPublisher(f.pub)}, opts...)
	c, err := New(Resolved(reg), Env{Container: f.container, Reloader: f.reloader}, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := c.On(EventUpdateAvailable, f.available.inc); err != nil {
		return nil, err
	}
	if _, err := c.On(EventUpdate, f.updated.inc); err != nil {
		return nil, err
	}
	f.coord = c
	return f, nil
}

func (f *fixture) register() error {
	_, err := f.coord.CheckForUpdates(context.Background())
	return err
}
