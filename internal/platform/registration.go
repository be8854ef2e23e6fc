package platform

import (
	"context"
	"sync"

	"swupdate/internal/updater"
	"swupdate/pkg/types"
)

// Registration binds a script URL to its workers.
type Registration struct {
	container *Container
	scriptURL string

	mu         sync.Mutex
	active     *Worker
	installing *Worker
	waiting    *Worker

	onUpdateFound handlers[func()]
}

var _ updater.Registration = (*Registration)(nil)

func (r *Registration) ScriptURL() string { return r.scriptURL }

// Slot accessors return an untyped nil for empty slots so callers can
// compare the interface against nil.

func (r *Registration) Active() updater.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return asWorker(r.active)
}

func (r *Registration) Installing() updater.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return asWorker(r.installing)
}

func (r *Registration) Waiting() updater.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return asWorker(r.waiting)
}

func (r *Registration) OnUpdateFound(fn func()) updater.Subscription {
	return r.onUpdateFound.add(fn)
}

// Install starts installing a new worker built from a script with the given
// digest. A worker still installing is replaced and becomes redundant.
func (r *Registration) Install(digest string) *Worker {
	w := newWorker(r, digest)
	r.mu.Lock()
	prev := r.installing
	if prev != nil {
		prev.state = updater.WorkerRedundant
	}
	r.installing = w
	r.mu.Unlock()

	r.container.log.Debug().Str("worker_id", w.id).Str("script", r.scriptURL).Msg("update found")
	if prev != nil {
		prev.fire(updater.WorkerRedundant)
	}
	for _, fn := range r.onUpdateFound.snapshot() {
		fn()
	}
	return w
}

// Update compares script with the newest worker of the registration and, if
// the bytes changed, installs a new worker and runs its install step. It
// reports whether a new worker was installed.
func (r *Registration) Update(ctx context.Context, script types.Script) (*Worker, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if r.newestDigest() == script.Digest {
		return nil, false, nil
	}
	w := r.Install(script.Digest)
	if err := w.FinishInstall(); err != nil {
		return w, false, err
	}
	return w, true, nil
}

func (r *Registration) newestDigest() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range []*Worker{r.installing, r.waiting, r.active} {
		if w != nil {
			return w.digest
		}
	}
	return ""
}

// activate walks w through activating/activated, retires the previous active
// worker and, when claim is set, makes w the page controller.
func (r *Registration) activate(w *Worker, claim bool) {
	r.mu.Lock()
	prev := r.active
	if prev == w {
		prev = nil
	}
	r.active = w
	r.mu.Unlock()

	w.setState(updater.WorkerActivating)
	if prev != nil {
		prev.setState(updater.WorkerRedundant)
	}
	w.setState(updater.WorkerActivated)
	r.container.log.Debug().Str("worker_id", w.id).Bool("claim", claim).Msg("worker activated")
	if claim {
		r.container.setController(w)
	}
}

func asWorker(w *Worker) updater.Worker {
	if w == nil {
		return nil
	}
	return w
}
