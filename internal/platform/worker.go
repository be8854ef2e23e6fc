package platform

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"swupdate/internal/updater"
)

// Worker is one instance of a worker script.
type Worker struct {
	id     string
	digest string
	reg    *Registration

	// state and inbox are guarded by reg.mu so slot moves and state changes
	// stay consistent with each other.
	state updater.WorkerState
	inbox [][]byte

	onState handlers[func(updater.WorkerState)]
}

var _ updater.Worker = (*Worker)(nil)

func newWorker(reg *Registration, digest string) *Worker {
	return &Worker{
		id:     uuid.NewString(),
		digest: digest,
		reg:    reg,
		state:  updater.WorkerInstalling,
	}
}

func (w *Worker) ID() string { return w.id }

// Digest is the fingerprint of the script this worker was installed from.
func (w *Worker) Digest() string { return w.digest }

func (w *Worker) State() updater.WorkerState {
	w.reg.mu.Lock()
	defer w.reg.mu.Unlock()
	return w.state
}

func (w *Worker) OnStateChange(fn func(updater.WorkerState)) updater.Subscription {
	return w.onState.add(fn)
}

// PostMessage delivers msg to the worker. The activation directive makes a
// waiting worker skip waiting, which completes the control transfer before
// PostMessage returns.
func (w *Worker) PostMessage(msg updater.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	w.reg.mu.Lock()
	if w.state == updater.WorkerRedundant {
		w.reg.mu.Unlock()
		return ErrRedundant
	}
	w.inbox = append(w.inbox, b)
	waiting := w.reg.waiting == w
	w.reg.mu.Unlock()

	if msg.IsActivation() && waiting {
		return w.SkipWaiting()
	}
	return nil
}

// Messages decodes every message posted to the worker, oldest first.
func (w *Worker) Messages() []updater.Message {
	w.reg.mu.Lock()
	raw := make([][]byte, len(w.inbox))
	copy(raw, w.inbox)
	w.reg.mu.Unlock()
	out := make([]updater.Message, 0, len(raw))
	for _, b := range raw {
		var m updater.Message
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FinishInstall completes the install step. With an active worker present
// the new one parks in the waiting slot (replacing an older waiting worker);
// otherwise it activates straight away.
func (w *Worker) FinishInstall() error {
	r := w.reg
	r.mu.Lock()
	if r.installing != w || w.state != updater.WorkerInstalling {
		r.mu.Unlock()
		return fmt.Errorf("finish install %s: %w", w.id, ErrInvalidState)
	}
	r.installing = nil
	w.state = updater.WorkerInstalled
	var evicted *Worker
	firstInstall := r.active == nil
	if !firstInstall {
		if r.waiting != nil {
			evicted = r.waiting
			evicted.state = updater.WorkerRedundant
		}
		r.waiting = w
	}
	r.mu.Unlock()

	r.container.log.Debug().Str("worker_id", w.id).Bool("first_install", firstInstall).Msg("worker installed")
	if evicted != nil {
		evicted.fire(updater.WorkerRedundant)
	}
	w.fire(updater.WorkerInstalled)
	if firstInstall {
		r.activate(w, r.container.claimFirst)
	}
	return nil
}

// SkipWaiting promotes a waiting worker to active and hands it control of
// the page.
func (w *Worker) SkipWaiting() error {
	r := w.reg
	r.mu.Lock()
	if r.waiting != w {
		r.mu.Unlock()
		return fmt.Errorf("skip waiting %s: %w", w.id, ErrInvalidState)
	}
	r.waiting = nil
	r.mu.Unlock()
	r.activate(w, true)
	return nil
}

// Fail marks the worker redundant, as when its install step throws.
func (w *Worker) Fail() {
	r := w.reg
	r.mu.Lock()
	if w.state == updater.WorkerRedundant {
		r.mu.Unlock()
		return
	}
	w.state = updater.WorkerRedundant
	if r.installing == w {
		r.installing = nil
	}
	if r.waiting == w {
		r.waiting = nil
	}
	r.mu.Unlock()
	r.container.log.Debug().Str("worker_id", w.id).Msg("worker redundant")
	w.fire(updater.WorkerRedundant)
}

func (w *Worker) fire(s updater.WorkerState) {
	for _, fn := range w.onState.snapshot() {
		fn(s)
	}
}

func (w *Worker) setState(s updater.WorkerState) {
	w.reg.mu.Lock()
	w.state = s
	w.reg.mu.Unlock()
	w.fire(s)
}
