package updater

import "context"

// WorkerState is the lifecycle state of a worker instance. It only moves
// forward: installing -> installed -> activating -> activated, or to
// redundant on failure or replacement.
type WorkerState string

const (
	WorkerInstalling WorkerState = "installing"
	WorkerInstalled  WorkerState = "installed"
	WorkerActivating WorkerState = "activating"
	WorkerActivated  WorkerState = "activated"
	WorkerRedundant  WorkerState = "redundant"
)

// Phase is the coordinator's position in its state machine.
type Phase string

const (
	PhaseAwaitingRegistration Phase = "awaiting_registration"
	PhaseFreshInstall         Phase = "fresh_install"
	PhaseControlled           Phase = "controlled"
	PhaseUpdateDetected       Phase = "update_detected"
	PhaseActivating           Phase = "activating"
	PhaseReloaded             Phase = "reloaded"
)

// Subscriber event names accepted by Coordinator.On.
const (
	EventUpdateAvailable = "updateAvailable"
	EventUpdate          = "update"
)

// ActivateDirective is the tag carried by the activation message. Workers
// react to it by skipping their waiting phase.
const ActivateDirective = "update"

// Message is posted to a worker. Only UpdateManagerEvent is interpreted by
// this package; workers may receive other messages too.
type Message struct {
	UpdateManagerEvent string `json:"updateManagerEvent,omitempty"`
}

// ActivationMessage asks a waiting worker to become active.
var ActivationMessage = Message{UpdateManagerEvent: ActivateDirective}

// IsActivation reports whether m is the activation directive.
func (m Message) IsActivation() bool { return m.UpdateManagerEvent == ActivateDirective }

// Subscription is returned by every listener attachment. Unsubscribe detaches
// the listener and is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Worker is one instance of a worker script.
type Worker interface {
	ID() string
	State() WorkerState
	// OnStateChange calls fn with the new state after every transition.
	OnStateChange(fn func(WorkerState)) Subscription
	PostMessage(msg Message) error
}

// Registration binds the page to a worker script. Each slot accessor
// returns nil when the slot is empty.
type Registration interface {
	Active() Worker
	Installing() Worker
	Waiting() Worker
	// OnUpdateFound fires each time a new worker enters the installing slot.
	OnUpdateFound(fn func()) Subscription
}

// Container exposes the page-level worker state.
type Container interface {
	// Controller returns the worker currently controlling the page, or nil.
	Controller() Worker
	// OnControllerChange fires when the controlling worker changes. Some
	// platforms deliver it more than once per transfer.
	OnControllerChange(fn func()) Subscription
}

// Reloader performs the page reload once control has moved to a new worker.
type Reloader interface {
	Reload()
}

// ReloaderFunc adapts a plain function to Reloader.
type ReloaderFunc func()

func (f ReloaderFunc) Reload() { f() }

// Source yields the registration handle, possibly after waiting on the
// platform's register call.
type Source interface {
	Register(ctx context.Context) (Registration, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Registration, error)

func (f SourceFunc) Register(ctx context.Context) (Registration, error) { return f(ctx) }

// Resolved returns a Source for a handle that is already available.
func Resolved(reg Registration) Source { return resolvedSource{reg: reg} }

type resolvedSource struct{ reg Registration }

func (s resolvedSource) Register(context.Context) (Registration, error) {
	if s.reg == nil {
		return nil, ConfigurationError{Reason: "registration handle required"}
	}
	return s.reg, nil
}
